package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/vending-machine/internal/vending"
)

type staticStates map[string]vending.State

func (s staticStates) States(context.Context) map[string]vending.State {
	return s
}

func TestStateCollector_Collect(t *testing.T) {
	collector := NewStateCollector(staticStates{
		"chat:1": vending.StateInsertCoin,
		"chat:2": vending.StateHasCustomerCoins,
		"chat:3": vending.StateHasCustomerCoins,
	}, 0)

	collector.collect(context.Background())

	assert.Equal(t, float64(3), testutil.ToFloat64(activeMachines))
	assert.Equal(t, float64(2), testutil.ToFloat64(machinesByState.WithLabelValues(string(vending.StateHasCustomerCoins))))
	assert.Equal(t, float64(0), testutil.ToFloat64(machinesByState.WithLabelValues(string(vending.StateSoldOut))))
}

func TestRecordCoin(t *testing.T) {
	before := testutil.ToFloat64(coinsTotal.WithLabelValues("penny", "rejected"))
	RecordCoin("penny", false)
	assert.Equal(t, before+1, testutil.ToFloat64(coinsTotal.WithLabelValues("penny", "rejected")))
}

func TestRecordStateTransition(t *testing.T) {
	from, to := string(vending.StateInsertCoin), string(vending.StateHasCustomerCoins)
	before := testutil.ToFloat64(stateTransitionsTotal.WithLabelValues(from, to))

	m, err := vending.New(vending.WithTransitionRecorder(RecordStateTransition))
	assert.NoError(t, err)
	_, err = m.DepositCoin(vending.CoinDime)
	assert.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(stateTransitionsTotal.WithLabelValues(from, to)))
}
