// Package credentials derives and verifies account secrets with argon2id.
// Nothing in here touches storage: Verify is a pure function of the account
// and the supplied secret.
package credentials

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// DefaultParams follow the RFC 9106 second recommended option, scaled down
// in memory for an interactive login path.
var DefaultParams = models.KDFParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
}

// Derive builds a fresh credential record for secret with a random salt.
func Derive(secret string) (*models.Credential, error) {
	return DeriveWithParams(secret, DefaultParams)
}

// DeriveWithParams is Derive with explicit cost parameters.
func DeriveWithParams(secret string, p models.KDFParams) (*models.Credential, error) {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 || p.KeyLen == 0 {
		return nil, fmt.Errorf("%w: invalid kdf params %+v", common.ErrorValidation, p)
	}
	salt := common.GenerateRandByteArray(saltSize)
	return &models.Credential{
		Hash:   derive([]byte(secret), salt, p),
		Salt:   salt,
		Params: p,
	}, nil
}

// Verify reports whether secret matches the account's stored credential.
// An account without a credential never verifies.
func Verify(account *models.Account, secret string) bool {
	if account == nil || account.Credential == nil {
		return false
	}
	c := account.Credential
	if len(c.Hash) == 0 || c.Params.Time == 0 || c.Params.Memory == 0 || c.Params.Threads == 0 {
		return false
	}

	candidate := []byte(secret)
	defer common.WipeByteArray(candidate)

	p := c.Params
	p.KeyLen = uint32(len(c.Hash))
	return subtle.ConstantTimeCompare(c.Hash, derive(candidate, c.Salt, p)) == 1
}

var decoy = sync.OnceValue(func() *models.Account {
	c, err := Derive("")
	if err != nil {
		panic(err)
	}
	return &models.Account{Credential: c}
})

// VerifyMissing costs the same as Verify against a default-parameter
// credential and always reports false. Callers use it when the account is
// unknown so response timing does not reveal which ids exist.
func VerifyMissing(secret string) bool {
	Verify(decoy(), secret)
	return false
}

func derive(secret, salt []byte, p models.KDFParams) []byte {
	return argon2.IDKey(secret, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}
