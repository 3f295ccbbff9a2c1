package monitor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRequestEncoding(t *testing.T) {
	market := solana.MustPublicKeyFromBase58("8EiGdx3XVeWS6WdurL1pEm3PpHKbBZ9tUMSJKQdkqM29")

	raw, err := json.Marshal(newSubscribeRequest(7, market, rpc.CommitmentConfirmed))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 7,
		"method": "accountSubscribe",
		"params": ["8EiGdx3XVeWS6WdurL1pEm3PpHKbBZ9tUMSJKQdkqM29", {"encoding": "base64", "commitment": "confirmed"}]
	}`, string(raw))
}

func TestParseAck(t *testing.T) {
	sub, err := parseAck([]byte(`{"jsonrpc":"2.0","result":23784,"id":3}`), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(23784), sub)

	sub, err = parseAck([]byte(`{"jsonrpc":"2.0","result":0,"id":1}`), 1)
	require.NoError(t, err)
	assert.Zero(t, sub)
}

func TestParseAckFailures(t *testing.T) {
	tests := map[string]string{
		"error object": `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid param"},"id":1}`,
		"null result":  `{"jsonrpc":"2.0","result":null,"id":1}`,
		"no result":    `{"jsonrpc":"2.0","id":1}`,
		"wrong id":     `{"jsonrpc":"2.0","result":5,"id":2}`,
		"missing id":   `{"jsonrpc":"2.0","result":5}`,
		"bad result":   `{"jsonrpc":"2.0","result":"abc","id":1}`,
		"notification": `{"jsonrpc":"2.0","method":"accountNotification","params":{}}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseAck([]byte(raw), 1)
			assert.True(t, errors.Is(err, ErrSubscriptionRejected), "got %v", err)
		})
	}

	_, err := parseAck([]byte(`not json`), 1)
	assert.Error(t, err)
}

func TestParseNotification(t *testing.T) {
	raw := `{"jsonrpc":"2.0","method":"accountNotification","params":{"result":{"context":{"slot":5199307},` +
		`"value":{"data":["AQID","base64"],"executable":false,"lamports":33594,"owner":"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P","rentEpoch":635}},"subscription":23784}}`

	update, ok, err := parseNotification([]byte(raw))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(5199307), update.Slot)
	assert.Equal(t, []byte{1, 2, 3}, update.Data)
}

func TestParseNotificationIgnoresOtherMessages(t *testing.T) {
	for _, raw := range []string{
		`{"jsonrpc":"2.0","method":"slotNotification","params":{"result":{"slot":1}}}`,
		`{"jsonrpc":"2.0","result":true,"id":9}`,
	} {
		_, ok, err := parseNotification([]byte(raw))
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestParseNotificationMalformed(t *testing.T) {
	tests := map[string]string{
		"bad json":    `{"method":`,
		"bad params":  `{"method":"accountNotification","params":"oops"}`,
		"no data":     `{"method":"accountNotification","params":{"result":{"value":{"data":[]}}}}`,
		"bad base64":  `{"method":"accountNotification","params":{"result":{"value":{"data":["!!!","base64"]}}}}`,
		"null params": `{"method":"accountNotification","params":null}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseNotification([]byte(raw))
			assert.Error(t, err)
		})
	}
}
