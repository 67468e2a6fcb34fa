package repository_test

import (
	"context"
	"testing"
	"time"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorRepository(t *testing.T) {
	repo := repository.NewGormOperatorRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	op := &models.Operator{Name: "Ali", Email: " Ali@Example.com ", Password: "s3cretpass", Active: true}
	require.NoError(t, repo.Create(ctx, op))
	assert.NotZero(t, op.ID)
	assert.Equal(t, "ali@example.com", op.Email)
	assert.Equal(t, "operator", op.Role)
	assert.True(t, models.CheckPasswordHash("s3cretpass", op.Password))

	byEmail, err := repo.GetByEmail(ctx, "ALI@example.com")
	require.NoError(t, err)
	assert.Equal(t, op.ID, byEmail.ID)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.TouchLogin(ctx, op.ID, at))

	byID, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLogin)
	assert.True(t, at.Equal(byID.LastLogin.UTC()))

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrOperatorNotFound)
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrOperatorNotFound)
}
