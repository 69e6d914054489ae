package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StringList holds product image URLs, description entries and sizes.
// Catalog documents imported before the array migration carry these
// fields as a bare string, so decoding accepts both shapes.
type StringList []string

func (s *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*s = nil
	case bsontype.Array:
		var entries []string
		if err := bson.UnmarshalValue(t, data, &entries); err != nil {
			return err
		}
		*s = entries
	case bsontype.String:
		var entry string
		if err := bson.UnmarshalValue(t, data, &entry); err != nil {
			return err
		}
		if entry = strings.TrimSpace(entry); entry == "" {
			*s = StringList{}
		} else {
			*s = StringList{entry}
		}
	default:
		return fmt.Errorf("cannot decode %s into a product field list", t)
	}
	return nil
}

// MarshalBSONValue writes an array even for single-entry lists so new
// documents never reintroduce the string shape.
func (s StringList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue([]string(s))
}
