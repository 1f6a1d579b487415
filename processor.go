package locket

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Processor encrypts tagged fields of T on Store and decrypts them on Load.
//
//	type Patient struct {
//	    ID  string `json:"id"`
//	    SSN string `json:"ssn" store.encrypt:"ssn" load.decrypt:"ssn"`
//	}
//
// Each tagged field is bound under (owner, identity), where owner defaults to
// the type name and identity is the tag value. Keys come from the Cipher's
// registry at call time. Processors are safe for concurrent use.
type Processor[T Cloner[T]] struct {
	codec    Codec
	cipher   *Cipher
	owner    string
	typeName string
	plans    *typeFieldPlans
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

type processorConfig struct {
	owner string
}

// WithOwner binds the processor's fields under owner instead of the type name.
// Use the table or collection name when keys are configured per table.
func WithOwner(owner string) ProcessorOption {
	return func(c *processorConfig) {
		c.owner = owner
	}
}

// NewProcessor creates a Processor for type T.
// Returns an error wrapping ErrInvalidTag if a tagged field has an unsupported type.
func NewProcessor[T Cloner[T]](codec Codec, cipher *Cipher, opts ...ProcessorOption) (*Processor[T], error) {
	plans, err := getOrBuildPlans[T]()
	if err != nil {
		return nil, err
	}

	cfg := processorConfig{owner: plans.typeName}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Processor[T]{
		codec:    codec,
		cipher:   cipher,
		owner:    cfg.owner,
		typeName: plans.typeName,
		plans:    plans,
	}

	emitProcessorCreated(context.Background(), codec.ContentType(), plans.typeName)
	return p, nil
}

// Owner returns the owner the processor's fields are bound under.
func (p *Processor[T]) Owner() string {
	return p.owner
}

// Fields returns the identities of every encrypted field, in declaration order.
func (p *Processor[T]) Fields() []string {
	return p.plans.identities()
}

// Validate reports the first field that has no key bound.
// Store and Load check keys per call as well; Validate exists to catch
// configuration errors at startup.
func (p *Processor[T]) Validate() error {
	for _, id := range p.plans.identities() {
		if !p.cipher.keys.IsBound(p.owner, id) {
			return newKeyError(ErrKeyUndefined, p.owner, id)
		}
	}
	return nil
}

// Store encrypts tagged fields of a clone of obj and marshals the result.
// Use for data going to storage (database, cache).
func (p *Processor[T]) Store(ctx context.Context, obj *T) ([]byte, error) {
	start := time.Now()
	emitStoreStart(ctx, p.codec.ContentType(), p.typeName)

	var retErr error
	var retData []byte
	defer func() {
		emitStoreComplete(ctx, p.codec.ContentType(), p.typeName,
			len(retData), time.Since(start), len(p.plans.encrypt), retErr)
	}()

	if obj == nil {
		retData, retErr = p.marshal(nil)
		return retData, retErr
	}

	// Clone to avoid mutating original
	clone := (*obj).Clone()

	if e, ok := any(&clone).(Encryptable); ok {
		if err := e.Encrypt(ctx, ownerFields{cipher: p.cipher, owner: p.owner}); err != nil {
			retErr = fmt.Errorf("encrypt: %w", err)
			return nil, retErr
		}
	} else if err := p.applyEncrypt(ctx, &clone); err != nil {
		retErr = fmt.Errorf("encrypt: %w", err)
		return nil, retErr
	}

	retData, retErr = p.marshal(&clone)
	return retData, retErr
}

// Load unmarshals data and decrypts tagged fields.
// Use for data coming from storage (database, cache).
func (p *Processor[T]) Load(ctx context.Context, data []byte) (*T, error) {
	start := time.Now()
	emitLoadStart(ctx, p.codec.ContentType(), p.typeName)

	var retErr error
	defer func() {
		emitLoadComplete(ctx, p.codec.ContentType(), p.typeName,
			time.Since(start), len(p.plans.decrypt), retErr)
	}()

	var obj T
	if err := p.codec.Unmarshal(data, &obj); err != nil {
		retErr = newCodecError(ErrUnmarshal, err)
		return nil, retErr
	}

	if d, ok := any(&obj).(Decryptable); ok {
		if err := d.Decrypt(ctx, ownerFields{cipher: p.cipher, owner: p.owner}); err != nil {
			retErr = fmt.Errorf("decrypt: %w", err)
			return nil, retErr
		}
		return &obj, nil
	}

	if err := p.applyDecrypt(ctx, &obj); err != nil {
		retErr = fmt.Errorf("decrypt: %w", err)
		return nil, retErr
	}

	return &obj, nil
}

func (p *Processor[T]) marshal(v any) ([]byte, error) {
	data, err := p.codec.Marshal(v)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// applyEncrypt replaces plaintext with tokens via reflection.
func (p *Processor[T]) applyEncrypt(ctx context.Context, obj *T) error {
	rv := reflect.ValueOf(obj).Elem()

	for _, plan := range p.plans.encrypt {
		field, ok := getField(rv, plan)
		if !ok {
			continue
		}
		f := p.cipher.Field(p.owner, plan.identity)

		// Handle slice of strings
		if plan.isSlice {
			for i := 0; i < field.Len(); i++ {
				elem := field.Index(i)
				if !elem.CanSet() {
					continue
				}
				token, err := f.Encode(ctx, []byte(elem.String()))
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", plan.name, i, err)
				}
				elem.SetString(token)
			}
			continue
		}

		// Handle map of strings
		if plan.isMap {
			iter := field.MapRange()
			for iter.Next() {
				k, v := iter.Key(), iter.Value()
				token, err := f.Encode(ctx, []byte(v.String()))
				if err != nil {
					return fmt.Errorf("%s[%v]: %w", plan.name, k.Interface(), err)
				}
				field.SetMapIndex(k, reflect.ValueOf(token).Convert(field.Type().Elem()))
			}
			continue
		}

		// Handle scalar string or []byte
		if !field.CanSet() {
			continue
		}

		var plaintext []byte
		if plan.isBytes {
			plaintext = field.Bytes()
		} else {
			plaintext = []byte(field.String())
		}

		token, err := f.Encode(ctx, plaintext)
		if err != nil {
			return fmt.Errorf("%s: %w", plan.name, err)
		}

		if plan.isBytes {
			field.SetBytes([]byte(token))
		} else {
			field.SetString(token)
		}
	}

	return nil
}

// applyDecrypt replaces tokens with plaintext via reflection.
func (p *Processor[T]) applyDecrypt(ctx context.Context, obj *T) error {
	rv := reflect.ValueOf(obj).Elem()

	for _, plan := range p.plans.decrypt {
		field, ok := getField(rv, plan)
		if !ok {
			continue
		}
		f := p.cipher.Field(p.owner, plan.identity)

		// Handle slice of strings
		if plan.isSlice {
			for i := 0; i < field.Len(); i++ {
				elem := field.Index(i)
				if !elem.CanSet() {
					continue
				}
				plaintext, err := f.Decode(ctx, elem.String())
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", plan.name, i, err)
				}
				elem.SetString(string(plaintext))
			}
			continue
		}

		// Handle map of strings
		if plan.isMap {
			iter := field.MapRange()
			for iter.Next() {
				k, v := iter.Key(), iter.Value()
				plaintext, err := f.Decode(ctx, v.String())
				if err != nil {
					return fmt.Errorf("%s[%v]: %w", plan.name, k.Interface(), err)
				}
				field.SetMapIndex(k, reflect.ValueOf(string(plaintext)).Convert(field.Type().Elem()))
			}
			continue
		}

		// Handle scalar string or []byte
		if !field.CanSet() {
			continue
		}

		var token string
		if plan.isBytes {
			token = string(field.Bytes())
		} else {
			token = field.String()
		}

		plaintext, err := f.Decode(ctx, token)
		if err != nil {
			return fmt.Errorf("%s: %w", plan.name, err)
		}

		if plan.isBytes {
			field.SetBytes(plaintext)
		} else {
			field.SetString(string(plaintext))
		}
	}

	return nil
}

// getField navigates a field path, dereferencing pointers as needed.
func getField(rv reflect.Value, plan fieldPlan) (reflect.Value, bool) {
	if len(plan.ptrIndices) == 0 {
		return rv.FieldByIndex(plan.index), true
	}

	current := rv
	ptrSet := make(map[int]bool, len(plan.ptrIndices))
	for _, idx := range plan.ptrIndices {
		ptrSet[idx] = true
	}

	for i, idx := range plan.index {
		current = current.Field(idx)

		if ptrSet[i] {
			if current.IsNil() {
				return reflect.Value{}, false
			}
			current = current.Elem()
		}
	}

	return current, true
}
