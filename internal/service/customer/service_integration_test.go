package customer

import (
	"context"
	"log"
	"os"
	"testing"

	"storefront-checkout/internal/pgtest"
	customerrepo "storefront-checkout/internal/repository/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndAuthenticate_Integration(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()

	repo := customerrepo.NewPostgres(pool, log.New(os.Stdout, "[test] ", log.LstdFlags))
	svc := New(repo)

	cust, err := svc.Signup(ctx, SignupInput{Email: "integration@example.com", Password: "Abcdefg1", FullName: "Int User"})
	require.NoError(t, err)
	require.NotNil(t, cust)
	assert.NotEmpty(t, cust.ID)

	got, err := svc.Authenticate(ctx, "INTEGRATION@example.com", "Abcdefg1")
	require.NoError(t, err)
	assert.Equal(t, cust.ID, got.ID)
	assert.Equal(t, "Int User", got.FullName)

	_, err = svc.Signup(ctx, SignupInput{Email: "integration@example.com", Password: "Abcdefg1"})
	assert.Error(t, err)
}
