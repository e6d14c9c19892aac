package history

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"strconv"
	"time"
)

type signaturePayload struct {
	EntryID         string `json:"entryId"`
	ExecutionID     string `json:"executionId"`
	FlowID          string `json:"flowId"`
	FlowKind        string `json:"flowKind"`
	Owner           string `json:"owner"`
	DisplayIdentity string `json:"displayIdentity"`
	Counterparty    string `json:"counterparty,omitempty"`
	AmountUnits     string `json:"amountUnits"`
	Direction       string `json:"direction"`
	TxRef           string `json:"txRef"`
	BlockNumber     string `json:"blockNumber"`
	TimestampRef    string `json:"timestampRef"`
}

func buildSignaturePayload(e *Entry) signaturePayload {
	payload := signaturePayload{
		EntryID:         e.EntryID.String(),
		ExecutionID:     e.ExecutionID.String(),
		FlowID:          e.FlowID.String(),
		FlowKind:        e.FlowKind,
		Owner:           e.Owner.Hex(),
		DisplayIdentity: e.DisplayIdentity,
		AmountUnits:     e.Amount.UnitsString(),
		Direction:       string(e.Direction),
		TxRef:           e.TxRef,
		BlockNumber:     strconv.FormatUint(e.BlockNumber, 10),
		TimestampRef:    e.TimestampRef.UTC().Format(time.RFC3339Nano),
	}
	if !e.Counterparty.IsZero() {
		payload.Counterparty = e.Counterparty.Hex()
	}
	return payload
}

// SignEntry generates an HMAC signature for the entry.
func SignEntry(e *Entry, key []byte) ([]byte, error) {
	data, err := json.Marshal(buildSignaturePayload(e))
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyEntrySignature verifies the HMAC signature for the entry.
func VerifyEntrySignature(e *Entry, key []byte) (bool, error) {
	if len(e.Signature) == 0 {
		return false, nil
	}
	expected, err := SignEntry(e, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, e.Signature), nil
}
