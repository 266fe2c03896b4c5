package monday

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMembersDeduplicatesOwnersAndSubscribers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"boards":[{
			"owners":[{"id":"1","name":"John Smith","email":"john@acme.com"}],
			"subscribers":[
				{"id":"1","name":"John Smith","email":"john@acme.com"},
				{"id":"2","name":"Sarah Chen","email":"sarah@acme.com"}
			]}]}}`))
	})

	members, err := client.Members(context.Background(), "123")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}
	if members[0].Name != "John Smith" || members[1].Name != "Sarah Chen" {
		t.Errorf("unexpected members: %+v", members)
	}
}

func TestFindOrCreateParentFindsAcrossPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.Variables["cursor"] == nil {
			w.Write([]byte(`{"data":{"boards":[{"items_page":{
				"cursor":"page2","items":[{"id":"10","name":"Website"}]}}]}}`))
			return
		}
		w.Write([]byte(`{"data":{"boards":[{"items_page":{
			"cursor":null,"items":[{"id":"11","name":"Marketing"}]}}]}}`))
	})

	item, err := client.FindOrCreateParent(context.Background(), "123", "Marketing")
	if err != nil {
		t.Fatalf("FindOrCreateParent: %v", err)
	}
	if item.ID != "11" {
		t.Errorf("item.ID = %s, want 11", item.ID)
	}
}

func TestFindOrCreateParentCreatesWhenAbsent(t *testing.T) {
	created := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if strings.Contains(req.Query, "create_item") {
			created = true
			if req.Variables["name"] != "New Project" {
				t.Errorf("name = %v, want New Project", req.Variables["name"])
			}
			w.Write([]byte(`{"data":{"create_item":{"id":"42","name":"New Project"}}}`))
			return
		}
		w.Write([]byte(`{"data":{"boards":[{"items_page":{"cursor":null,"items":[]}}]}}`))
	})

	item, err := client.FindOrCreateParent(context.Background(), "123", "New Project")
	if err != nil {
		t.Fatalf("FindOrCreateParent: %v", err)
	}
	if !created {
		t.Error("expected create_item mutation")
	}
	if item.ID != "42" {
		t.Errorf("item.ID = %s, want 42", item.ID)
	}
}

func TestSubitemsBoardID(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		want     string
	}{
		{"boardIds array", `{"boardIds":[456]}`, "456"},
		{"linkedBoardsIds", `{"linkedBoardsIds":[789]}`, "789"},
		{"boardId scalar", `{"boardId":321}`, "321"},
		{"string id", `{"boardId":"654"}`, "654"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				resp := map[string]any{"data": map[string]any{"boards": []any{map[string]any{
					"columns": []any{
						map[string]any{"id": "name", "title": "Name", "type": "name", "settings_str": "{}"},
						map[string]any{"id": "sub", "title": "Subitems", "type": "subtasks", "settings_str": tt.settings},
					},
				}}}}
				json.NewEncoder(w).Encode(resp)
			})

			got, err := client.SubitemsBoardID(context.Background(), "123")
			if err != nil {
				t.Fatalf("SubitemsBoardID: %v", err)
			}
			if got != tt.want {
				t.Errorf("SubitemsBoardID = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSubitemsBoardIDMissingColumn(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"boards":[{"columns":[
			{"id":"name","title":"Name","type":"name","settings_str":"{}"}]}]}}`))
	})

	_, err := client.SubitemsBoardID(context.Background(), "123")
	if !errors.Is(err, ErrNoSubitemsColumn) {
		t.Errorf("err = %v, want ErrNoSubitemsColumn", err)
	}
}

func TestCreateSubitemSendsColumnValues(t *testing.T) {
	var gotVars map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVars = decodeRequest(t, r).Variables
		w.Write([]byte(`{"data":{"create_subitem":{"id":"99","name":"Call John"}}}`))
	})

	item, err := client.CreateSubitem(context.Background(), "456", "42", "Call John", map[string]any{
		"date": map[string]string{"date": "2024-01-02"},
	})
	if err != nil {
		t.Fatalf("CreateSubitem: %v", err)
	}
	if item.ID != "99" {
		t.Errorf("item.ID = %s, want 99", item.ID)
	}

	values, ok := gotVars["columnValues"].(string)
	if !ok || !strings.Contains(values, `"2024-01-02"`) {
		t.Errorf("columnValues = %v, want JSON string with date", gotVars["columnValues"])
	}
}

func TestCreateSubitemRecoversAfterTimeout(t *testing.T) {
	var reapplied map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch {
		case strings.Contains(req.Query, "change_multiple_column_values"):
			reapplied = req.Variables
			w.Write([]byte(`{"data":{"change_multiple_column_values":{"id":"99"}}}`))
		case strings.Contains(req.Query, "create_subitem"):
			// Outlive the caller's deadline so the mutation times out
			// even though it would have landed server side.
			time.Sleep(150 * time.Millisecond)
			w.Write([]byte(`{"data":{"create_subitem":{"id":"99","name":"Call John"}}}`))
		default:
			w.Write([]byte(`{"data":{"items":[{"subitems":[{"id":"99","name":"Call John"}]}]}}`))
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	item, err := client.CreateSubitem(ctx, "456", "42", "Call John", map[string]any{
		"status": map[string]string{"label": "To Do"},
	})
	if err != nil {
		t.Fatalf("CreateSubitem: %v", err)
	}
	if item.ID != "99" {
		t.Errorf("item.ID = %s, want 99", item.ID)
	}

	if reapplied == nil {
		t.Fatal("expected column values to be re-applied to the recovered subitem")
	}
	if reapplied["boardID"] != "456" || reapplied["itemID"] != "99" {
		t.Errorf("re-apply targeted %v/%v, want 456/99", reapplied["boardID"], reapplied["itemID"])
	}
	values, ok := reapplied["columnValues"].(string)
	if !ok || !strings.Contains(values, "To Do") {
		t.Errorf("columnValues = %v, want JSON string with status label", reapplied["columnValues"])
	}
}

func TestUpdateColumnValues(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		gotQuery = req.Query
		w.Write([]byte(`{"data":{"change_multiple_column_values":{"id":"99"}}}`))
	})

	err := client.UpdateColumnValues(context.Background(), "456", "99", map[string]any{
		"status": map[string]string{"label": "Done"},
	})
	if err != nil {
		t.Fatalf("UpdateColumnValues: %v", err)
	}
	if !strings.Contains(gotQuery, "change_multiple_column_values") {
		t.Errorf("unexpected query: %s", gotQuery)
	}
}
