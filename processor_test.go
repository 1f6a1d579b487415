package locket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// testCodec is a simple JSON codec for testing.
type testCodec struct{}

func (c *testCodec) ContentType() string { return "application/json" }

func (c *testCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *testCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Account has two encrypted columns with independent keys.
type Account struct {
	ID     string `json:"id"`
	Secret string `json:"secret" store.encrypt:"secret" load.decrypt:"secret"`
	Token  []byte `json:"token" store.encrypt:"token" load.decrypt:"token"`
}

func (a Account) Clone() Account {
	c := a
	if a.Token != nil {
		c.Token = append([]byte(nil), a.Token...)
	}
	return c
}

// Profile exercises slices, maps, nested and pointer structs.
type Profile struct {
	ID      string            `json:"id"`
	Phones  []string          `json:"phones" store.encrypt:"phones" load.decrypt:"phones"`
	Answers map[string]string `json:"answers" store.encrypt:"answers" load.decrypt:"answers"`
	Home    Address           `json:"home"`
	Work    *Address          `json:"work"`
}

type Address struct {
	Street string `json:"street" store.encrypt:"street" load.decrypt:"street"`
	City   string `json:"city"`
}

func (p Profile) Clone() Profile {
	c := p
	if p.Phones != nil {
		c.Phones = append([]string(nil), p.Phones...)
	}
	if p.Answers != nil {
		c.Answers = make(map[string]string, len(p.Answers))
		for k, v := range p.Answers {
			c.Answers[k] = v
		}
	}
	if p.Work != nil {
		w := *p.Work
		c.Work = &w
	}
	return c
}

// BadTag tags a field type that cannot hold a token.
type BadTag struct {
	Age int `store.encrypt:"age"`
}

func (b BadTag) Clone() BadTag { return b }

// MismatchedTag names different identities for encrypt and decrypt.
type MismatchedTag struct {
	Value string `store.encrypt:"a" load.decrypt:"b"`
}

func (m MismatchedTag) Clone() MismatchedTag { return m }

// CustomAccount implements the override interfaces.
type CustomAccount struct {
	Secret string `json:"secret"`
}

func (c CustomAccount) Clone() CustomAccount { return c }

func (c *CustomAccount) Encrypt(ctx context.Context, fields FieldSet) error {
	token, err := fields.Field("custom").Encode(ctx, []byte(c.Secret))
	if err != nil {
		return err
	}
	c.Secret = token
	return nil
}

func (c *CustomAccount) Decrypt(ctx context.Context, fields FieldSet) error {
	plain, err := fields.Field("custom").Decode(ctx, c.Secret)
	if err != nil {
		return err
	}
	c.Secret = string(plain)
	return nil
}

func newAccountCipher(t *testing.T) *Cipher {
	t.Helper()
	keys := NewKeyRegistry()
	if err := keys.Set("accounts", "secret", material(1)); err != nil {
		t.Fatal(err)
	}
	if err := keys.Set("accounts", "token", material(2)); err != nil {
		t.Fatal(err)
	}
	return NewCipher(keys)
}

func TestNewProcessor(t *testing.T) {
	proc, err := NewProcessor[Account](&testCodec{}, newAccountCipher(t), WithOwner("accounts"))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	if proc.Owner() != "accounts" {
		t.Errorf("Owner() = %q, want %q", proc.Owner(), "accounts")
	}
	if got := strings.Join(proc.Fields(), ","); got != "secret,token" {
		t.Errorf("Fields() = %q, want %q", got, "secret,token")
	}
	if err := proc.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestNewProcessor_DefaultOwner(t *testing.T) {
	proc, err := NewProcessor[Account](&testCodec{}, NewCipher(NewKeyRegistry()))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	if !strings.Contains(proc.Owner(), "Account") {
		t.Errorf("Owner() = %q, want the type name", proc.Owner())
	}
	if err := proc.Validate(); !errors.Is(err, ErrKeyUndefined) {
		t.Errorf("Validate() error = %v, want ErrKeyUndefined", err)
	}
}

func TestNewProcessor_InvalidTags(t *testing.T) {
	if _, err := NewProcessor[BadTag](&testCodec{}, NewCipher(NewKeyRegistry())); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("NewProcessor[BadTag]() error = %v, want ErrInvalidTag", err)
	}
	if _, err := NewProcessor[MismatchedTag](&testCodec{}, NewCipher(NewKeyRegistry())); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("NewProcessor[MismatchedTag]() error = %v, want ErrInvalidTag", err)
	}
}

func TestProcessor_StoreLoad(t *testing.T) {
	ctx := context.Background()
	proc, err := NewProcessor[Account](&testCodec{}, newAccountCipher(t), WithOwner("accounts"))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	original := Account{ID: "1", Secret: "Peewee is a simple and small ORM.", Token: []byte("raw-bytes")}
	data, err := proc.Store(ctx, &original)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	if strings.Contains(string(data), "Peewee") {
		t.Error("stored data should not contain plaintext")
	}
	if original.Secret != "Peewee is a simple and small ORM." || string(original.Token) != "raw-bytes" {
		t.Error("Store() should not mutate the original")
	}

	var stored Account
	_ = json.Unmarshal(data, &stored)
	if stored.ID != "1" {
		t.Error("untagged fields should pass through")
	}

	loaded, err := proc.Load(ctx, data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Secret != original.Secret || string(loaded.Token) != "raw-bytes" {
		t.Errorf("round-trip failed: got %+v", *loaded)
	}
}

func TestProcessor_StoreNil(t *testing.T) {
	proc, _ := NewProcessor[Account](&testCodec{}, newAccountCipher(t), WithOwner("accounts"))

	data, err := proc.Store(context.Background(), nil)
	if err != nil {
		t.Fatalf("Store(nil) error: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Store(nil) = %q, want %q", data, "null")
	}
}

func TestProcessor_KeyUndefined(t *testing.T) {
	ctx := context.Background()
	c := newAccountCipher(t)
	proc, _ := NewProcessor[Account](&testCodec{}, c, WithOwner("accounts"))

	original := Account{ID: "1", Secret: "s", Token: []byte("t")}
	data, err := proc.Store(ctx, &original)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	c.Keys().Unset("accounts", "token")

	if _, err := proc.Store(ctx, &original); !errors.Is(err, ErrKeyUndefined) {
		t.Errorf("Store() error = %v, want ErrKeyUndefined", err)
	}
	if _, err := proc.Load(ctx, data); !errors.Is(err, ErrKeyUndefined) {
		t.Errorf("Load() error = %v, want ErrKeyUndefined", err)
	}
}

func TestProcessor_CorruptedData(t *testing.T) {
	ctx := context.Background()
	proc, _ := NewProcessor[Account](&testCodec{}, newAccountCipher(t), WithOwner("accounts"))

	data := []byte(`{"id":"1","secret":"UGVld2VlIGlzIGEgc2ltcGxlIGFuZCBzbWFsbCBPUk0u","token":null}`)
	_, err := proc.Load(ctx, data)
	if err == nil {
		t.Fatal("Load() of a non-token should fail")
	}
	if !errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("Load() error = %v, want a token error", err)
	}

	var te *TransformError
	if !errors.As(err, &te) || te.Field != "secret" {
		t.Errorf("error should identify the field, got %v", err)
	}
}

func TestProcessor_WrongKey(t *testing.T) {
	ctx := context.Background()
	c := newAccountCipher(t)
	proc, _ := NewProcessor[Account](&testCodec{}, c, WithOwner("accounts"))

	data, _ := proc.Store(ctx, &Account{ID: "1", Secret: "s", Token: []byte("t")})

	c.Keys().Unset("accounts", "secret")
	_ = c.Keys().Set("accounts", "secret", material(0xee))

	if _, err := proc.Load(ctx, data); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Load() error = %v, want ErrTokenInvalid", err)
	}
}

func TestProcessor_LoadUnmarshalError(t *testing.T) {
	proc, _ := NewProcessor[Account](&testCodec{}, newAccountCipher(t), WithOwner("accounts"))

	_, err := proc.Load(context.Background(), []byte("{"))
	if !errors.Is(err, ErrUnmarshal) {
		t.Errorf("Load() error = %v, want ErrUnmarshal", err)
	}
}

func TestProcessor_Collections(t *testing.T) {
	ctx := context.Background()
	keys := NewKeyRegistry()
	for i, f := range []string{"phones", "answers", "street"} {
		if err := keys.Set("profiles", f, material(byte(i+1))); err != nil {
			t.Fatal(err)
		}
	}
	proc, err := NewProcessor[Profile](&testCodec{}, NewCipher(keys), WithOwner("profiles"))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	original := Profile{
		ID:      "1",
		Phones:  []string{"555-0100", "555-0101"},
		Answers: map[string]string{"pet": "Rex"},
		Home:    Address{Street: "1 Main St", City: "Springfield"},
		Work:    &Address{Street: "2 Work Rd", City: "Shelbyville"},
	}

	data, err := proc.Store(ctx, &original)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	for _, plain := range []string{"555-0100", "Rex", "Main St", "Work Rd"} {
		if strings.Contains(string(data), plain) {
			t.Errorf("stored data contains %q", plain)
		}
	}
	if !strings.Contains(string(data), "Springfield") {
		t.Error("untagged nested field should pass through")
	}
	if original.Phones[0] != "555-0100" || original.Answers["pet"] != "Rex" || original.Work.Street != "2 Work Rd" {
		t.Error("Store() should not mutate the original")
	}

	loaded, err := proc.Load(ctx, data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Phones[1] != "555-0101" || loaded.Answers["pet"] != "Rex" {
		t.Errorf("collections round-trip failed: %+v", *loaded)
	}
	if loaded.Home.Street != "1 Main St" || loaded.Work == nil || loaded.Work.Street != "2 Work Rd" {
		t.Errorf("nested round-trip failed: %+v", *loaded)
	}
}

func TestProcessor_NilPointerStruct(t *testing.T) {
	ctx := context.Background()
	keys := NewKeyRegistry()
	for i, f := range []string{"phones", "answers", "street"} {
		_ = keys.Set("profiles", f, material(byte(i+1)))
	}
	proc, _ := NewProcessor[Profile](&testCodec{}, NewCipher(keys), WithOwner("profiles"))

	data, err := proc.Store(ctx, &Profile{ID: "1", Home: Address{Street: "x"}})
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	loaded, err := proc.Load(ctx, data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Work != nil {
		t.Error("nil pointer should stay nil")
	}
}

func TestProcessor_Override(t *testing.T) {
	ctx := context.Background()
	keys := NewKeyRegistry()
	_ = keys.Set("custom", "custom", material(5))
	proc, err := NewProcessor[CustomAccount](&testCodec{}, NewCipher(keys), WithOwner("custom"))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	data, err := proc.Store(ctx, &CustomAccount{Secret: "hidden"})
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("override Encrypt should have run")
	}

	loaded, err := proc.Load(ctx, data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Secret != "hidden" {
		t.Errorf("Secret = %q, want %q", loaded.Secret, "hidden")
	}

	keys.Unset("custom", "custom")
	if _, err := proc.Store(ctx, &CustomAccount{Secret: "hidden"}); !errors.Is(err, ErrKeyUndefined) {
		t.Errorf("Store() error = %v, want ErrKeyUndefined", err)
	}
}

func TestResetPlans(t *testing.T) {
	if _, err := getOrBuildPlans[Account](); err != nil {
		t.Fatal(err)
	}
	ResetPlans()

	plansMu.RLock()
	n := len(plans)
	plansMu.RUnlock()
	if n != 0 {
		t.Errorf("plan cache has %d entries after ResetPlans()", n)
	}
}
