package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lundebo/buddy-bets/internal/settlement/engine"
)

func TestCSVLayout(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	// Inverno: Oslo = UTC+1
	createdAt := time.Date(2025, 1, 5, 22, 59, 0, 0, time.UTC)

	result := engine.Result{
		Date: createdAt,
		Instructions: []engine.Instruction{
			{FromUser: "anna", ToUser: "bjorn", Amount: 200},
			{FromUser: "anna", ToUser: "carl", Amount: 100},
		},
		Adjustments: []engine.Adjustment{
			{UserName: "dag", Amount: 50, Reason: engine.ReasonUnmatchedSurplus},
		},
	}

	out := CSV(result, createdAt, oslo)
	lines := strings.Split(out, "\n")

	require.GreaterOrEqual(t, len(lines), 7)
	assert.Equal(t, "Snapshot Time (UTC),2025-01-05 22:59:00", lines[0])
	assert.Equal(t, "Snapshot Time (Europe/Oslo),2025-01-05 23:59:00", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Type,From,To,Amount,Details", lines[3])
	assert.Equal(t, "Payment,anna,bjorn,200,", lines[4])
	assert.Equal(t, "Payment,anna,carl,100,", lines[5])
	assert.Equal(t, "Adjustment,-,-,50,Unmatched Surplus (dag)", lines[6])
}

func TestCSVEmptyResult(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	createdAt := time.Date(2025, 7, 6, 21, 59, 0, 0, time.UTC)
	out := CSV(engine.Result{Date: createdAt}, createdAt, oslo)

	lines := strings.Split(out, "\n")
	// Verão: Oslo = UTC+2
	assert.Equal(t, "Snapshot Time (Europe/Oslo),2025-07-06 23:59:00", lines[1])
	assert.Equal(t, "Type,From,To,Amount,Details", lines[3])
	// sem instruções nem ajustes, o corpo acaba no cabeçalho das colunas
	assert.Equal(t, "", lines[4])
}
