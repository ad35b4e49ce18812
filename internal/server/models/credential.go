package models

// KDFParams are the argon2id parameters a credential was derived with.
// They are stored next to the hash so defaults can change without
// invalidating existing passwords.
type KDFParams struct {
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"`
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"l"`
}

// Credential is the stored, non-reversible form of an account secret.
type Credential struct {
	Hash   []byte
	Salt   []byte
	Params KDFParams
}

func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	return &Credential{
		Hash:   append([]byte(nil), c.Hash...),
		Salt:   append([]byte(nil), c.Salt...),
		Params: c.Params,
	}
}
