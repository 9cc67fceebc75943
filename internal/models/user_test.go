package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	assert.NoError(t, (&User{Username: "alice", Email: "a@x.com"}).Validate())
	assert.Error(t, (&User{Email: "a@x.com"}).Validate())
	assert.Error(t, (&User{Username: "alice"}).Validate())
}

func TestUserJSONPasswordNull(t *testing.T) {
	body, err := json.Marshal(User{ID: 1, Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"username":"alice","email":"a@x.com","password":null}`, string(body))

	password := "hash"
	body, err = json.Marshal(User{ID: 2, Username: "bob", Email: "b@x.com", Password: &password})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"username":"bob","email":"b@x.com","password":"hash"}`, string(body))
}

func TestUserTableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
}
