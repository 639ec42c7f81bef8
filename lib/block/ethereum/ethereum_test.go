package ethereum

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockNode answers every JSON-RPC call with the same balance.
func mockNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID *json.RawMessage `json:"id"`
	}

	_ = json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  "0x166c761c586733c0",
	})
}

func TestBalance(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(mockNode))
	defer node.Close()

	e, err := Init(node.URL, "")
	if err != nil {
		t.Fatalf("Init err:%v", err)
	}
	defer e.Close()

	bal, err := e.Balance("0xcba75F167B03e34B8a572c50273C082401b073Ed")
	if err != nil {
		t.Fatalf("Balance err:%v", err)
	}

	if bal.String() != "1615796230433485760" {
		t.Errorf("unexpected balance %s", bal)
	}
}
