package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{"username": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", expr)
	assert.Equal(t, map[string]string{"#f0": "username"}, names)
	_, ok := values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields(t *testing.T) {
	updates := map[string]interface{}{
		"email":      "a@qq.com",
		"first_name": "Alice",
		"username":   "alice",
	}
	expr, names, values, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	require.Len(t, names, 3)
	require.Len(t, values, 3)
	// Every field appears exactly once, whatever the placeholder order.
	seen := map[string]bool{}
	for _, field := range names {
		seen[field] = true
	}
	assert.True(t, seen["email"] && seen["first_name"] && seen["username"])
	assert.Contains(t, expr, "SET ")
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	_, _, values, err := buildUpdateExpr(map[string]interface{}{"enable": true})
	require.NoError(t, err)
	av, ok := values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, _, _, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCursorRoundTrip(t *testing.T) {
	c := encodeCursor("01J0ABCDEF|2024-05-01T00:00:00Z")
	got, err := decodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "01J0ABCDEF|2024-05-01T00:00:00Z", got)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := decodeCursor("!!not base64!!")
	assert.Error(t, err)
}
