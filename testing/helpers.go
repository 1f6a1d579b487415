// Package testing provides fixtures for code that uses locket.
package testing

import (
	"encoding/hex"

	"github.com/zoobzio/locket"
)

// Fixed key material for tests, hex encoded.
const (
	KeyHex1 = "5C2C99CF0E19C28BDC77F763966CEA044CE4B98D11A9EE79326B35E9ADFECF18"
	KeyHex2 = "77EF36669FE66655F274A9055100970A926271D60F855FD554152DA8BF9C0BE1"
	KeyHex3 = "49C7646A1A2584C2FB4E2DE55B56BD3B3A2E60A18C7B179DD465C662D4FA4814"
	KeyHex4 = "C2E9271809C6D126DCC6AAFEFA6097D530BE71925EB11543B270848540E43338"

	// WrongKeyHex is valid key material that differs from KeyHex1 in its first bytes.
	WrongKeyHex = "FFFFFF1809C6D126DCC6AAFEFA6097D530BE71925EB11543B270848540E43338"

	// ShortKeyHex is 28 bytes, too short to be a key.
	ShortKeyHex = "C2E9271809C6D122FB4E2DE55B56BD3B3A2E60A18C7B179DD465C662"
)

// PatientOwner is the owner the Patient fixture binds its fields under.
const PatientOwner = "patients"

// Material decodes a hex fixture. It panics on malformed hex.
func Material(h string) []byte {
	b, err := hex.DecodeString(h)
	if err != nil {
		panic(err)
	}
	return b
}

// TestKey returns a valid key.
func TestKey() locket.Key {
	k, err := locket.ParseKey(Material(KeyHex1))
	if err != nil {
		panic(err)
	}
	return k
}

// PatientCipher returns a cipher over a fresh registry with both Patient
// fields bound under PatientOwner.
func PatientCipher(opts ...locket.Option) *locket.Cipher {
	keys := locket.NewKeyRegistry()
	if err := keys.Set(PatientOwner, "ssn", Material(KeyHex1)); err != nil {
		panic(err)
	}
	if err := keys.Set(PatientOwner, "notes", Material(KeyHex2)); err != nil {
		panic(err)
	}
	return locket.NewCipher(keys, opts...)
}

// Patient is a record with two encrypted fields under distinct keys.
type Patient struct {
	ID    string   `json:"id" yaml:"id" bson:"id" msgpack:"id" xml:"id"`
	Name  string   `json:"name" yaml:"name" bson:"name" msgpack:"name" xml:"name"`
	SSN   string   `json:"ssn" yaml:"ssn" bson:"ssn" msgpack:"ssn" xml:"ssn" store.encrypt:"ssn" load.decrypt:"ssn"`
	Notes []string `json:"notes" yaml:"notes" bson:"notes" msgpack:"notes" xml:"notes" store.encrypt:"notes" load.decrypt:"notes"`
}

// Clone implements locket.Cloner[Patient].
func (p Patient) Clone() Patient {
	c := p
	if p.Notes != nil {
		c.Notes = make([]string, len(p.Notes))
		copy(c.Notes, p.Notes)
	}
	return c
}

// SamplePatient returns a populated Patient.
func SamplePatient() Patient {
	return Patient{
		ID:    "p-1",
		Name:  "Alice",
		SSN:   "123-45-6789",
		Notes: []string{"allergic to penicillin", "prefers mornings"},
	}
}
