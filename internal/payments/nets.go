package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"freshmart/internal/domain"
)

// Nets is the QR-polling flow. There is no push channel: the browser polls
// and every poll calls Confirm.
type Nets struct {
	apiKey    string
	projectID string
	txnID     string
	rest      *restClient
}

func NewNets(apiKey, projectID, txnID, baseURL string, hc *http.Client) *Nets {
	return &Nets{
		apiKey:    apiKey,
		projectID: projectID,
		txnID:     txnID,
		rest:      newRESTClient(domain.ProviderNets, baseURL, hc),
	}
}

func (n *Nets) Provider() string { return domain.ProviderNets }

func (n *Nets) header() http.Header {
	h := http.Header{}
	h.Set("api-key", n.apiKey)
	h.Set("project-id", n.projectID)
	return h
}

type netsData struct {
	ResponseCode    string `json:"response_code"`
	TxnStatus       any    `json:"txn_status"`
	TxnRetrievalRef string `json:"txn_retrieval_ref"`
	QRCode          string `json:"qr_code"`
	NetworkStatus   int    `json:"network_status"`
	ErrorMessage    string `json:"error_message"`
	RRN             string `json:"rrn"`
	AcqTxnRef       string `json:"acq_txn_ref"`
}

// unwrapNets accepts {result:{data:{..}}}, {result:{..}} or a flat object.
func unwrapNets(raw []byte) (netsData, error) {
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return netsData{}, fmt.Errorf("decode nets response: %w", err)
	}
	body := raw
	if len(env.Result) > 0 {
		body = env.Result
		var inner struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(env.Result, &inner); err == nil && len(inner.Data) > 0 {
			body = inner.Data
		}
	}
	var d netsData
	if err := json.Unmarshal(body, &d); err != nil {
		return netsData{}, fmt.Errorf("decode nets response: %w", err)
	}
	return d, nil
}

func txnStatusIs(v any, want string) bool {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%g", x) == want
	case string:
		return x == want
	}
	return false
}

func (n *Nets) Begin(ctx context.Context, req AttemptRequest) (AttemptHandle, error) {
	body := map[string]any{
		"txn_id":         n.txnID,
		"amt_in_dollars": req.Totals.Total.StringFixed(2),
		"notify_mobile":  0,
	}
	raw, err := n.rest.do(ctx, http.MethodPost, "/api/v1/common/payments/nets-qr/request", jsonHeader(n.header()), jsonBody(body))
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.Status < 500 {
			return AttemptHandle{}, &RejectedError{Provider: n.Provider(), Detail: he.Error()}
		}
		return AttemptHandle{}, err
	}
	d, err := unwrapNets(raw)
	if err != nil {
		return AttemptHandle{}, err
	}
	if d.ResponseCode != "00" || !txnStatusIs(d.TxnStatus, "1") || d.QRCode == "" || d.TxnRetrievalRef == "" {
		return AttemptHandle{}, &RejectedError{
			Provider: n.Provider(),
			Detail:   fmt.Sprintf("response_code=%q network_status=%d %s", d.ResponseCode, d.NetworkStatus, d.ErrorMessage),
		}
	}
	return AttemptHandle{Ref: d.TxnRetrievalRef, QRCode: d.QRCode}, nil
}

func (n *Nets) Confirm(ctx context.Context, ref string) (Confirmation, error) {
	path := "/api/v1/common/payments/nets/webhook?txn_retrieval_ref=" + url.QueryEscape(ref)
	raw, err := n.rest.do(ctx, http.MethodGet, path, n.header(), nil)
	if err != nil {
		return Confirmation{}, err
	}
	d, err := unwrapNets(raw)
	if err != nil {
		return Confirmation{}, err
	}

	c := Confirmation{Status: StatusPending, ProviderRef: ref, Raw: string(raw)}
	switch {
	case d.ResponseCode == "00" && (txnStatusIs(d.TxnStatus, "1") || txnStatusIs(d.TxnStatus, "SUCCESS")):
		c.Status = StatusSucceeded
		for _, r := range []string{d.RRN, d.AcqTxnRef, d.TxnRetrievalRef} {
			if r != "" {
				c.ProviderRef = r
				break
			}
		}
	case txnStatusIs(d.TxnStatus, "2") || txnStatusIs(d.TxnStatus, "FAILED"):
		c.Status = StatusFailed
	}
	return c, nil
}

// Refund is not offered by the NETS QR API; refunds go through the bank.
func (n *Nets) Refund(context.Context, RefundRequest) (RefundResult, error) {
	return RefundResult{}, fmt.Errorf("nets: %w", domain.ErrRefundUnsupported)
}
