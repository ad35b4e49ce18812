package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_HasPassword(t *testing.T) {
	var nilAccount *Account
	assert.False(t, nilAccount.HasPassword())
	assert.False(t, (&Account{}).HasPassword())
	assert.True(t, (&Account{Credential: &Credential{}}).HasPassword())
}

func TestAccount_CloneIsDeep(t *testing.T) {
	a := &Account{
		ID:            "id",
		Name:          "Alice",
		Configuration: []byte(`{"a":1}`),
		Credential:    &Credential{Hash: []byte{1}, Salt: []byte{2}, Params: KDFParams{Time: 1}},
	}
	c := a.Clone()
	c.Configuration[0] = 'x'
	c.Credential.Hash[0] = 9

	assert.Equal(t, `{"a":1}`, string(a.Configuration))
	assert.Equal(t, []byte{1}, a.Credential.Hash)
	assert.Equal(t, a.Credential.Params, c.Credential.Params)

	var nilAccount *Account
	assert.Nil(t, nilAccount.Clone())
}
