package rpc

import (
	"encoding/json"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// UserFromView converts an account view to its wire form.
func UserFromView(v *models.AccountView) *User {
	libs := v.Library.Libraries
	if libs == nil {
		libs = []string{}
	}
	return &User{
		ID:            v.ID,
		Name:          v.Name,
		HasPassword:   v.HasPassword,
		Configuration: json.RawMessage(v.Configuration),
		Libraries:     libs,
		ItemCount:     v.Library.ItemCount,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
