package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/facade"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{&facade.Error{Kind: facade.KindNotFound, Message: "account not found"}, codes.NotFound, "account not found"},
		{&facade.Error{Kind: facade.KindInvalidCredentials, Message: facade.InvalidCredentialsMessage}, codes.Unauthenticated, facade.InvalidCredentialsMessage},
		{&facade.Error{Kind: facade.KindConflict, Message: "taken", Err: common.ErrorConflict}, codes.AlreadyExists, "taken"},
		{&facade.Error{Kind: facade.KindConflict, Message: "stale", Err: fmt.Errorf("x: %w", common.ErrVersionConflict)}, codes.Aborted, "stale"},
		{&facade.Error{Kind: facade.KindInvalid, Message: "bad"}, codes.InvalidArgument, "bad"},
		{&facade.Error{Kind: facade.KindInternal, Message: "internal error"}, codes.Internal, "internal error"},
		{errors.New("secret detail"), codes.Internal, "internal error"},
	}
	for _, c := range cases {
		st, ok := status.FromError(toStatus(c.err))
		assert.True(t, ok)
		assert.Equal(t, c.code, st.Code(), "%v", c.err)
		assert.Equal(t, c.msg, st.Message())
	}
}
