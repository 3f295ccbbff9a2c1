// internal/monitor/protocol.go
package monitor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	methodAccountSubscribe    = "accountSubscribe"
	methodAccountNotification = "accountNotification"
)

var ErrSubscriptionRejected = errors.New("subscription rejected")

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type subscribeConfig struct {
	Encoding   solana.EncodingType `json:"encoding"`
	Commitment rpc.CommitmentType  `json:"commitment"`
}

func newSubscribeRequest(id uint64, account solana.PublicKey, commitment rpc.CommitmentType) subscribeRequest {
	return subscribeRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  methodAccountSubscribe,
		Params: []interface{}{
			account.String(),
			subscribeConfig{Encoding: solana.EncodingBase64, Commitment: commitment},
		},
	}
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// inboundMessage covers both responses and notifications.
type inboundMessage struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type accountNotificationParams struct {
	Result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Data     []string `json:"data"`
			Lamports uint64   `json:"lamports"`
			Owner    string   `json:"owner"`
		} `json:"value"`
	} `json:"result"`
	Subscription uint64 `json:"subscription"`
}

// parseAck validates a subscription response and returns the subscription id.
func parseAck(raw []byte, requestID uint64) (uint64, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("malformed subscription response: %w", err)
	}
	if msg.ID == nil || *msg.ID != requestID {
		return 0, fmt.Errorf("%w: response does not match request id %d", ErrSubscriptionRejected, requestID)
	}
	if msg.Error != nil {
		return 0, fmt.Errorf("%w: %d %s", ErrSubscriptionRejected, msg.Error.Code, msg.Error.Message)
	}
	if len(msg.Result) == 0 || string(msg.Result) == "null" {
		return 0, fmt.Errorf("%w: empty result", ErrSubscriptionRejected)
	}

	var subscription uint64
	if err := json.Unmarshal(msg.Result, &subscription); err != nil {
		return 0, fmt.Errorf("%w: unexpected result %s", ErrSubscriptionRejected, string(msg.Result))
	}
	return subscription, nil
}

// accountUpdate is the payload of one account notification.
type accountUpdate struct {
	Slot uint64
	Data []byte
}

// parseNotification extracts account data from a notification.
// ok is false for messages that are not account notifications.
func parseNotification(raw []byte) (update accountUpdate, ok bool, err error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return accountUpdate{}, false, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Method != methodAccountNotification {
		return accountUpdate{}, false, nil
	}

	var params accountNotificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return accountUpdate{}, true, fmt.Errorf("malformed notification params: %w", err)
	}
	if len(params.Result.Value.Data) == 0 {
		return accountUpdate{}, true, errors.New("notification carries no account data")
	}

	data, err := base64.StdEncoding.DecodeString(params.Result.Value.Data[0])
	if err != nil {
		return accountUpdate{}, true, fmt.Errorf("invalid base64 account data: %w", err)
	}

	return accountUpdate{Slot: params.Result.Context.Slot, Data: data}, true, nil
}
