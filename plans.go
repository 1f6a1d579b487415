package locket

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

const (
	tagEncrypt = "store.encrypt"
	tagDecrypt = "load.decrypt"
)

func init() {
	// Register compound tags with sentinel
	sentinel.Tag(tagEncrypt)
	sentinel.Tag(tagDecrypt)
}

// typeFieldPlans holds the encrypt/decrypt plans for one struct type.
type typeFieldPlans struct {
	typeName string
	encrypt  []fieldPlan
	decrypt  []fieldPlan
}

// fieldPlan describes how to reach and transform a single field.
type fieldPlan struct {
	index      []int  // reflect.Value.FieldByIndex access path
	name       string // dotted Go field path for error messages
	identity   string // field identity the key is bound under
	isBytes    bool   // true if field is []byte, false if string
	ptrIndices []int  // indices where pointer dereference is needed
	isSlice    bool   // true if field is []string
	isMap      bool   // true if field is map[K]string
}

var (
	plans   = make(map[reflect.Type]*typeFieldPlans)
	plansMu sync.RWMutex
)

// getOrBuildPlans returns cached field plans for T, building them on first use.
func getOrBuildPlans[T any]() (*typeFieldPlans, error) {
	typ := reflect.TypeFor[T]()

	// Fast path: read-lock cache check
	plansMu.RLock()
	if cached, ok := plans[typ]; ok {
		plansMu.RUnlock()
		return cached, nil
	}
	plansMu.RUnlock()

	plansMu.Lock()
	defer plansMu.Unlock()

	// Double-check pattern
	if cached, ok := plans[typ]; ok {
		return cached, nil
	}

	built, err := buildFieldPlans[T]()
	if err != nil {
		return nil, err
	}
	plans[typ] = built
	return built, nil
}

// ResetPlans clears the field plan cache.
// This is primarily useful for test isolation.
func ResetPlans() {
	plansMu.Lock()
	defer plansMu.Unlock()
	plans = make(map[reflect.Type]*typeFieldPlans)
}

// buildFieldPlans creates field plans for type T by scanning struct tags.
func buildFieldPlans[T any]() (*typeFieldPlans, error) {
	spec := sentinel.Scan[T]()
	out := &typeFieldPlans{typeName: spec.TypeName}

	if err := buildFieldPlansRecursive(out, spec, nil, nil, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// buildFieldPlansRecursive recursively processes fields and nested structs.
func buildFieldPlansRecursive(out *typeFieldPlans, spec sentinel.Metadata, parentIndex, ptrIndices []int, namePrefix string) error {
	for _, field := range spec.Fields {
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		fullName := field.Name
		if namePrefix != "" {
			fullName = namePrefix + "." + field.Name
		}

		if field.Kind == sentinel.KindStruct {
			if nested := scanNestedType(field.ReflectType); nested != nil {
				if err := buildFieldPlansRecursive(out, *nested, fullIndex, ptrIndices, fullName); err != nil {
					return err
				}
			}
			continue
		}

		if field.Kind == sentinel.KindPointer && field.ReflectType.Elem().Kind() == reflect.Struct {
			if nested := scanNestedType(field.ReflectType.Elem()); nested != nil {
				newPtrIndices := append(append([]int{}, ptrIndices...), len(fullIndex)-1)
				if err := buildFieldPlansRecursive(out, *nested, fullIndex, newPtrIndices, fullName); err != nil {
					return err
				}
			}
			continue
		}

		encVal, hasEnc := field.Tags[tagEncrypt]
		decVal, hasDec := field.Tags[tagDecrypt]
		if !hasEnc && !hasDec {
			continue
		}

		rt := field.ReflectType
		isString := rt.Kind() == reflect.String
		isBytes := rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
		isStringSlice := rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.String
		isStringMap := rt.Kind() == reflect.Map && rt.Elem().Kind() == reflect.String

		if !isString && !isBytes && !isStringSlice && !isStringMap {
			return &KeyError{
				Err:   fmt.Errorf("%w: %s must be string, []byte, []string or map[K]string", ErrInvalidTag, rt),
				Owner: spec.TypeName,
				Field: fullName,
			}
		}

		if hasEnc && hasDec && encVal != decVal {
			return &KeyError{
				Err:   fmt.Errorf("%w: %s %q and %s %q name different fields", ErrInvalidTag, tagEncrypt, encVal, tagDecrypt, decVal),
				Owner: spec.TypeName,
				Field: fullName,
			}
		}

		identity := encVal
		if !hasEnc {
			identity = decVal
		}
		if identity == "" {
			identity = fullName
		}
		if strings.TrimSpace(identity) != identity {
			return &KeyError{
				Err:   fmt.Errorf("%w: field identity %q has surrounding whitespace", ErrInvalidTag, identity),
				Owner: spec.TypeName,
				Field: fullName,
			}
		}

		plan := fieldPlan{
			index:      fullIndex,
			name:       fullName,
			identity:   identity,
			isBytes:    isBytes,
			ptrIndices: ptrIndices,
			isSlice:    isStringSlice,
			isMap:      isStringMap,
		}
		if hasEnc {
			out.encrypt = append(out.encrypt, plan)
		}
		if hasDec {
			out.decrypt = append(out.decrypt, plan)
		}
	}

	return nil
}

// identities returns the distinct field identities across both plan lists, in declaration order.
func (t *typeFieldPlans) identities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]fieldPlan{t.encrypt, t.decrypt} {
		for _, plan := range list {
			if !seen[plan.identity] {
				seen[plan.identity] = true
				out = append(out, plan.identity)
			}
		}
	}
	return out
}

// scanNestedType scans a nested struct type and returns its metadata.
func scanNestedType(rt reflect.Type) *sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok {
		return &spec
	}

	if rt.Kind() != reflect.Struct {
		return nil
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseLocketTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return &spec
}

// parseLocketTags extracts the encrypt/decrypt tags from a struct tag.
func parseLocketTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, name := range []string{tagEncrypt, tagDecrypt} {
		if val, ok := tag.Lookup(name); ok {
			tags[name] = val
		}
	}
	return tags
}
