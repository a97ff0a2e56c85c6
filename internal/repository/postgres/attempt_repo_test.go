package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/dkhromov/voicegate/internal/model"
)

func TestAttemptRepo_Append_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttemptRepo(db)

	ctx := context.Background()
	claimed := uuid.Must(uuid.NewV4())
	score := 0.95

	mock.ExpectExec(`INSERT INTO attempts`).
		WithArgs("verify", &claimed, &claimed, 0.87, (*uuid.UUID)(nil), &score, "accept", "accepted").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Append(ctx, &model.Attempt{
		Mode:       model.ModeVerify,
		ClaimedID:  &claimed,
		ResultID:   &claimed,
		Similarity: 0.87,
		TextScore:  &score,
		Decision:   model.DecisionAccept,
		Reason:     model.ReasonAccepted,
	})
	require.NoError(t, err)
}

func TestAttemptRepo_List_All(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttemptRepo(db)

	ctx := context.Background()
	claimed := uuid.Must(uuid.NewV4())
	created := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, created_at, mode, claimed_id, result_id, similarity, challenge_id, text_score, decision, reason`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "created_at", "mode", "claimed_id", "result_id",
			"similarity", "challenge_id", "text_score", "decision", "reason",
		}).AddRow(
			int64(2), created, "verify", &claimed, (*uuid.UUID)(nil),
			0.31, (*uuid.UUID)(nil), (*float64)(nil), "reject", "low_similarity",
		))

	got, err := r.List(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.DecisionReject, got[0].Decision)
	require.Equal(t, model.ReasonLowSimilarity, got[0].Reason)
	require.Nil(t, got[0].ResultID)
}

func TestAttemptRepo_List_ByClaimedID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttemptRepo(db)

	ctx := context.Background()
	claimed := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`WHERE claimed_id=\$1 ORDER BY id DESC LIMIT \$2`).
		WithArgs(claimed, 5).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "created_at", "mode", "claimed_id", "result_id",
			"similarity", "challenge_id", "text_score", "decision", "reason",
		}))

	got, err := r.List(ctx, &claimed, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
