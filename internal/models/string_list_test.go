package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func decodeStringList(t *testing.T, value interface{}) (StringList, error) {
	t.Helper()
	bt, data, err := bson.MarshalValue(value)
	require.NoError(t, err)
	var list StringList
	return list, list.UnmarshalBSONValue(bt, data)
}

func TestStringListDecodesArray(t *testing.T) {
	list, err := decodeStringList(t, []string{"img-1.jpg", "img-2.jpg"})
	require.NoError(t, err)
	require.Equal(t, StringList{"img-1.jpg", "img-2.jpg"}, list)
}

func TestStringListDecodesLegacyString(t *testing.T) {
	list, err := decodeStringList(t, "  slim fit  ")
	require.NoError(t, err)
	require.Equal(t, StringList{"slim fit"}, list)
}

func TestStringListDecodesEmptyStringToEmptyList(t *testing.T) {
	list, err := decodeStringList(t, "   ")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestStringListRejectsOtherTypes(t *testing.T) {
	_, err := decodeStringList(t, int32(7))
	require.Error(t, err)
}

func TestStringListMarshalsSingleEntryAsArray(t *testing.T) {
	bt, data, err := StringList{"hoodie.jpg"}.MarshalBSONValue()
	require.NoError(t, err)

	var roundTripped []string
	require.NoError(t, bson.UnmarshalValue(bt, data, &roundTripped))
	require.Equal(t, []string{"hoodie.jpg"}, roundTripped)
}
