package core

// Wire protocol frames. The JSON shape mirrors externally tagged unions:
// a unit variant renders as its bare name ("AskLatest"), a payload variant
// as a single-key object ({"AskBlock": 7}). Every node on a topic must
// produce and accept exactly this framing.

import (
	"encoding/json"
	"fmt"
)

// Frame is the top-level envelope published on the gossip topic.
type Frame struct {
	Request      *BchainRequest
	Response     *BchainResponse
	Unrecognized bool
}

// BchainRequest solicits data or gossips new material. Exactly one field is
// set.
type BchainRequest struct {
	AskLatest   bool
	AskBlock    *int64
	SubmitTx    *Tx
	SubmitBlock *Block
	Msg         *string
}

// BchainResponse answers a request or acknowledges a submission. Exactly one
// field is set.
type BchainResponse struct {
	Latest      *Block
	Block       *Block
	AcceptTx    *HashDigest
	AcceptBlock *HashDigest
	Error       *BchainError
}

// BchainError describes a rejected submission or a generic failure.
type BchainError struct {
	Tx      *HashDigest
	Block   *HashDigest
	Generic *string
}

// Request and response constructors keep the one-field invariant in one
// place.

func RequestFrame(req *BchainRequest) *Frame   { return &Frame{Request: req} }
func ResponseFrame(res *BchainResponse) *Frame { return &Frame{Response: res} }

func AskLatestRequest() *BchainRequest { return &BchainRequest{AskLatest: true} }
func AskBlockRequest(id int64) *BchainRequest {
	return &BchainRequest{AskBlock: &id}
}
func SubmitTxRequest(tx *Tx) *BchainRequest      { return &BchainRequest{SubmitTx: tx} }
func SubmitBlockRequest(b *Block) *BchainRequest { return &BchainRequest{SubmitBlock: b} }
func MsgRequest(text string) *BchainRequest      { return &BchainRequest{Msg: &text} }
func LatestResponse(b *Block) *BchainResponse    { return &BchainResponse{Latest: b} }
func BlockResponse(b *Block) *BchainResponse     { return &BchainResponse{Block: b} }
func AcceptTxResponse(h HashDigest) *BchainResponse {
	return &BchainResponse{AcceptTx: &h}
}
func AcceptBlockResponse(h HashDigest) *BchainResponse {
	return &BchainResponse{AcceptBlock: &h}
}
func TxErrorResponse(h HashDigest) *BchainResponse {
	return &BchainResponse{Error: &BchainError{Tx: &h}}
}
func BlockErrorResponse(h HashDigest) *BchainResponse {
	return &BchainResponse{Error: &BchainError{Block: &h}}
}
func GenericErrorResponse(msg string) *BchainResponse {
	return &BchainResponse{Error: &BchainError{Generic: &msg}}
}

// marshalTagged renders a unit variant as a bare string and a payload variant
// as {"Variant": payload}.
func marshalTagged(unit string, variants map[string]any) ([]byte, error) {
	for tag, payload := range variants {
		return json.Marshal(map[string]any{tag: payload})
	}
	if unit == "" {
		return nil, fmt.Errorf("union has no variant set")
	}
	return json.Marshal(unit)
}

// splitTagged decodes either a bare string (unit variant) or a single-key
// object, returning the tag and raw payload.
func splitTagged(data []byte) (string, json.RawMessage, error) {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		return unit, nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, fmt.Errorf("malformed union: %w", err)
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("union must have exactly one variant, got %d", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, fmt.Errorf("empty union")
}

func (f *Frame) MarshalJSON() ([]byte, error) {
	switch {
	case f.Request != nil:
		return marshalTagged("", map[string]any{"BchainRequest": f.Request})
	case f.Response != nil:
		return marshalTagged("", map[string]any{"BchainResponse": f.Response})
	default:
		return marshalTagged("Unrecognized", nil)
	}
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTagged(data)
	if err != nil {
		return err
	}
	*f = Frame{}
	switch tag {
	case "BchainRequest":
		f.Request = &BchainRequest{}
		return json.Unmarshal(payload, f.Request)
	case "BchainResponse":
		f.Response = &BchainResponse{}
		return json.Unmarshal(payload, f.Response)
	default:
		f.Unrecognized = true
		return nil
	}
}

func (r *BchainRequest) MarshalJSON() ([]byte, error) {
	switch {
	case r.AskLatest:
		return marshalTagged("AskLatest", nil)
	case r.AskBlock != nil:
		return marshalTagged("", map[string]any{"AskBlock": *r.AskBlock})
	case r.SubmitTx != nil:
		return marshalTagged("", map[string]any{"SubmitTx": r.SubmitTx})
	case r.SubmitBlock != nil:
		return marshalTagged("", map[string]any{"SubmitBlock": r.SubmitBlock})
	case r.Msg != nil:
		return marshalTagged("", map[string]any{"Msg": *r.Msg})
	default:
		return nil, fmt.Errorf("request has no variant set")
	}
}

func (r *BchainRequest) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTagged(data)
	if err != nil {
		return err
	}
	*r = BchainRequest{}
	switch tag {
	case "AskLatest":
		r.AskLatest = true
		return nil
	case "AskBlock":
		r.AskBlock = new(int64)
		return json.Unmarshal(payload, r.AskBlock)
	case "SubmitTx":
		r.SubmitTx = &Tx{}
		return json.Unmarshal(payload, r.SubmitTx)
	case "SubmitBlock":
		r.SubmitBlock = &Block{}
		return json.Unmarshal(payload, r.SubmitBlock)
	case "Msg":
		r.Msg = new(string)
		return json.Unmarshal(payload, r.Msg)
	default:
		return fmt.Errorf("unknown request variant %q", tag)
	}
}

func (r *BchainResponse) MarshalJSON() ([]byte, error) {
	switch {
	case r.Latest != nil:
		return marshalTagged("", map[string]any{"Latest": r.Latest})
	case r.Block != nil:
		return marshalTagged("", map[string]any{"Block": r.Block})
	case r.AcceptTx != nil:
		return marshalTagged("", map[string]any{"AcceptTx": *r.AcceptTx})
	case r.AcceptBlock != nil:
		return marshalTagged("", map[string]any{"AcceptBlock": *r.AcceptBlock})
	case r.Error != nil:
		return marshalTagged("", map[string]any{"Error": r.Error})
	default:
		return nil, fmt.Errorf("response has no variant set")
	}
}

func (r *BchainResponse) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTagged(data)
	if err != nil {
		return err
	}
	*r = BchainResponse{}
	switch tag {
	case "Latest":
		r.Latest = &Block{}
		return json.Unmarshal(payload, r.Latest)
	case "Block":
		r.Block = &Block{}
		return json.Unmarshal(payload, r.Block)
	case "AcceptTx":
		r.AcceptTx = &HashDigest{}
		return json.Unmarshal(payload, r.AcceptTx)
	case "AcceptBlock":
		r.AcceptBlock = &HashDigest{}
		return json.Unmarshal(payload, r.AcceptBlock)
	case "Error":
		r.Error = &BchainError{}
		return json.Unmarshal(payload, r.Error)
	default:
		return fmt.Errorf("unknown response variant %q", tag)
	}
}

func (e *BchainError) MarshalJSON() ([]byte, error) {
	switch {
	case e.Tx != nil:
		return marshalTagged("", map[string]any{"Tx": *e.Tx})
	case e.Block != nil:
		return marshalTagged("", map[string]any{"Block": *e.Block})
	case e.Generic != nil:
		return marshalTagged("", map[string]any{"Generic": *e.Generic})
	default:
		return nil, fmt.Errorf("error has no variant set")
	}
}

func (e *BchainError) UnmarshalJSON(data []byte) error {
	tag, payload, err := splitTagged(data)
	if err != nil {
		return err
	}
	*e = BchainError{}
	switch tag {
	case "Tx":
		e.Tx = &HashDigest{}
		return json.Unmarshal(payload, e.Tx)
	case "Block":
		e.Block = &HashDigest{}
		return json.Unmarshal(payload, e.Block)
	case "Generic":
		e.Generic = new(string)
		return json.Unmarshal(payload, e.Generic)
	default:
		return fmt.Errorf("unknown error variant %q", tag)
	}
}

// String summarizes a request for operator logs; bulky payloads collapse to
// their hash.
func (r *BchainRequest) String() string {
	switch {
	case r.AskLatest:
		return "AskLatest"
	case r.AskBlock != nil:
		return fmt.Sprintf("AskBlock(%d)", *r.AskBlock)
	case r.SubmitTx != nil:
		return fmt.Sprintf("SubmitTx(%s)", r.SubmitTx.Hash())
	case r.SubmitBlock != nil:
		return fmt.Sprintf("SubmitBlock(%s)", r.SubmitBlock.Hash())
	case r.Msg != nil:
		return fmt.Sprintf("Msg(%s)", *r.Msg)
	default:
		return "Empty"
	}
}
