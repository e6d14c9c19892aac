package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/history"
)

func TestHistoryListQuery(t *testing.T) {
	owner := account.MustParse("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	t.Run("no filter", func(t *testing.T) {
		query, args := historyListQuery(history.Filter{}, 50, 0)
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")
		assert.Equal(t, []interface{}{50, 0}, args)
	})

	t.Run("all filters", func(t *testing.T) {
		dir := history.DirectionSent
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		query, args := historyListQuery(history.Filter{Owner: owner, Direction: &dir, Since: &since}, 10, 20)

		assert.Contains(t, query, " WHERE owner=$1 AND direction=$2 AND created_at >= $3")
		assert.Contains(t, query, "LIMIT $4 OFFSET $5")
		assert.Equal(t, []interface{}{owner.Hex(), "sent", since, 10, 20}, args)
	})

	t.Run("direction only", func(t *testing.T) {
		dir := history.DirectionClaimed
		query, args := historyListQuery(history.Filter{Direction: &dir}, 5, 0)
		assert.Contains(t, query, " WHERE direction=$1")
		assert.Len(t, args, 3)
	})
}
