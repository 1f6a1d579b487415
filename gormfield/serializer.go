// Package gormfield encrypts GORM columns with locket.
//
// Register a Serializer once, then tag columns with it:
//
//	gormfield.Register(gormfield.DefaultName, cipher)
//
//	type User struct {
//	    ID    uint
//	    Email string `gorm:"serializer:locket"`
//	}
//
// Each column is keyed by (table name, column name), so the key for the
// column above is bound with keys.Set("users", "email", material).
package gormfield

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zoobzio/locket"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DefaultName is the serializer name used in `gorm:"serializer:locket"` tags.
const DefaultName = "locket"

// Serializer implements schema.SerializerInterface for string and []byte columns.
type Serializer struct {
	cipher *locket.Cipher
}

// New returns a Serializer backed by cipher.
func New(cipher *locket.Cipher) *Serializer {
	return &Serializer{cipher: cipher}
}

// Register makes a Serializer for cipher available to GORM under name.
// Models parsed before the call keep the serializer they were parsed with.
func Register(name string, cipher *locket.Cipher) *Serializer {
	s := New(cipher)
	schema.RegisterSerializer(name, s)
	return s
}

// Scan decrypts the stored token into the field. NULL leaves the zero value.
func (s *Serializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var token string
		switch v := dbValue.(type) {
		case []byte:
			token = string(v)
		case string:
			token = v
		default:
			return fmt.Errorf("gormfield: unsupported column value %T for %s.%s", dbValue, tableOf(field), field.DBName)
		}

		plaintext, err := s.cipher.DecodeFromStorage(ctx, token, tableOf(field), field.DBName)
		if err != nil {
			return err
		}

		if err := assign(fieldValue.Elem(), plaintext); err != nil {
			return fmt.Errorf("gormfield: %s.%s: %w", tableOf(field), field.DBName, err)
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// Value encrypts the field for writing. A nil []byte is written as NULL.
func (s *Serializer) Value(ctx context.Context, field *schema.Field, _ reflect.Value, fieldValue interface{}) (interface{}, error) {
	plaintext, isNull, err := extract(fieldValue)
	if err != nil {
		return nil, fmt.Errorf("gormfield: %s.%s: %w", tableOf(field), field.DBName, err)
	}
	if isNull {
		return nil, nil
	}
	return s.cipher.EncodeForStorage(ctx, plaintext, tableOf(field), field.DBName)
}

// Validate reports the first column of model tagged with name that has no
// key bound in the serializer's cipher.
func (s *Serializer) Validate(db *gorm.DB, name string, model interface{}) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return err
	}

	for _, field := range stmt.Schema.Fields {
		if field.TagSettings["SERIALIZER"] != name {
			continue
		}
		if !s.cipher.Keys().IsBound(stmt.Schema.Table, field.DBName) {
			return &locket.KeyError{Err: locket.ErrKeyUndefined, Owner: stmt.Schema.Table, Field: field.DBName}
		}
	}
	return nil
}

func tableOf(field *schema.Field) string {
	if field.Schema == nil {
		return ""
	}
	return field.Schema.Table
}

// assign sets plaintext into a string or []byte kinded value.
func assign(v reflect.Value, plaintext []byte) error {
	switch {
	case v.Kind() == reflect.String:
		v.SetString(string(plaintext))
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		v.SetBytes(plaintext)
	case v.Kind() == reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := assign(elem.Elem(), plaintext); err != nil {
			return err
		}
		v.Set(elem)
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}

// extract returns the plaintext held by a string, []byte or pointer field.
func extract(fieldValue interface{}) ([]byte, bool, error) {
	if fieldValue == nil {
		return nil, true, nil
	}

	v := reflect.ValueOf(fieldValue)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, true, nil
		}
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.String:
		return []byte(v.String()), false, nil
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		if v.IsNil() {
			return nil, true, nil
		}
		return v.Bytes(), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported field type %s", v.Type())
	}
}
