package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const membersQuery = `
query ($boardID: [ID!]) {
  boards(ids: $boardID) {
    owners { id name email }
    subscribers { id name email }
  }
}`

// Members returns the deduplicated owners and subscribers of a board.
func (c *Client) Members(ctx context.Context, boardID string) ([]Member, error) {
	data, err := c.Execute(ctx, membersQuery, map[string]any{"boardID": []string{boardID}})
	if err != nil {
		return nil, fmt.Errorf("fetch board members: %w", err)
	}

	var result struct {
		Boards []struct {
			Owners      []Member `json:"owners"`
			Subscribers []Member `json:"subscribers"`
		} `json:"boards"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode board members: %w", err)
	}
	if len(result.Boards) == 0 {
		return nil, fmt.Errorf("board %s not found", boardID)
	}

	seen := make(map[string]struct{})
	var members []Member
	for _, m := range append(result.Boards[0].Owners, result.Boards[0].Subscribers...) {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		members = append(members, m)
	}
	return members, nil
}

const itemsPageQuery = `
query ($boardID: [ID!], $cursor: String) {
  boards(ids: $boardID) {
    items_page(limit: 100, cursor: $cursor) {
      cursor
      items { id name }
    }
  }
}`

const createItemMutation = `
mutation ($boardID: ID!, $name: String!) {
  create_item(board_id: $boardID, item_name: $name) { id name }
}`

// FindOrCreateParent looks for a top-level item with the given name, paging
// through the whole board, and creates it when absent. The match is exact on
// the item name.
func (c *Client) FindOrCreateParent(ctx context.Context, boardID, name string) (Item, error) {
	var cursor *string
	for {
		vars := map[string]any{"boardID": []string{boardID}}
		if cursor != nil {
			vars["cursor"] = *cursor
		}
		data, err := c.Execute(ctx, itemsPageQuery, vars)
		if err != nil {
			return Item{}, fmt.Errorf("list board items: %w", err)
		}

		var result struct {
			Boards []struct {
				ItemsPage struct {
					Cursor *string `json:"cursor"`
					Items  []Item  `json:"items"`
				} `json:"items_page"`
			} `json:"boards"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return Item{}, fmt.Errorf("decode board items: %w", err)
		}
		if len(result.Boards) == 0 {
			break
		}
		page := result.Boards[0].ItemsPage
		for _, it := range page.Items {
			if it.Name == name {
				return it, nil
			}
		}
		if page.Cursor == nil || *page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	data, err := c.Execute(ctx, createItemMutation, map[string]any{"boardID": boardID, "name": name})
	if err != nil {
		return Item{}, fmt.Errorf("create item %q: %w", name, err)
	}
	var created struct {
		CreateItem Item `json:"create_item"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return Item{}, fmt.Errorf("decode created item: %w", err)
	}
	return created.CreateItem, nil
}

const columnsQuery = `
query ($boardID: [ID!]) {
  boards(ids: $boardID) {
    columns { id title type settings_str }
  }
}`

// Columns returns the column definitions of a board.
func (c *Client) Columns(ctx context.Context, boardID string) ([]Column, error) {
	data, err := c.Execute(ctx, columnsQuery, map[string]any{"boardID": []string{boardID}})
	if err != nil {
		return nil, fmt.Errorf("fetch board columns: %w", err)
	}
	var result struct {
		Boards []struct {
			Columns []Column `json:"columns"`
		} `json:"boards"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode board columns: %w", err)
	}
	if len(result.Boards) == 0 {
		return nil, fmt.Errorf("board %s not found", boardID)
	}
	return result.Boards[0].Columns, nil
}

// SubitemsBoardID resolves the hidden board that holds a board's subitems by
// reading the subitems column settings. The linked board id has appeared
// under several keys across API versions.
func (c *Client) SubitemsBoardID(ctx context.Context, boardID string) (string, error) {
	columns, err := c.Columns(ctx, boardID)
	if err != nil {
		return "", err
	}
	for _, col := range columns {
		if col.Type != "subtasks" && col.Type != "subitems" {
			continue
		}
		var settings map[string]json.RawMessage
		if err := json.Unmarshal([]byte(col.SettingsStr), &settings); err != nil {
			continue
		}
		for _, key := range []string{"boardIds", "linkedBoardsIds", "boardId"} {
			raw, ok := settings[key]
			if !ok {
				continue
			}
			if id := firstID(raw); id != "" {
				return id, nil
			}
		}
	}
	return "", ErrNoSubitemsColumn
}

// firstID extracts a board id from a settings value that may be a number, a
// string, or an array of either.
func firstID(raw json.RawMessage) string {
	var list []json.Number
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0].String()
		}
		return ""
	}
	var single json.Number
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.String()
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return ""
}

const createSubitemMutation = `
mutation ($parentID: ID!, $name: String!, $columnValues: JSON!) {
  create_subitem(parent_item_id: $parentID, item_name: $name, column_values: $columnValues, create_labels_if_missing: true) { id name }
}`

const subitemsOfParentQuery = `
query ($parentID: [ID!]) {
  items(ids: $parentID) {
    subitems { id name }
  }
}`

// CreateSubitem creates a child item under a parent with the given column
// values. When the call times out, the parent's subitems are re-queried once:
// the mutation may have landed even though the response was lost. A subitem
// recovered that way gets its column values re-applied, since the lost
// response cannot confirm they stuck.
func (c *Client) CreateSubitem(ctx context.Context, subitemsBoardID, parentID, name string, columnValues map[string]any) (Item, error) {
	values, err := json.Marshal(columnValues)
	if err != nil {
		return Item{}, fmt.Errorf("encode column values: %w", err)
	}

	data, err := c.Execute(ctx, createSubitemMutation, map[string]any{
		"parentID":     parentID,
		"name":         name,
		"columnValues": string(values),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The caller's deadline is spent; the verification gets a
			// short budget of its own.
			verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), verifyTimeout)
			defer cancel()
			if item, found := c.findSubitem(verifyCtx, parentID, name); found {
				if len(columnValues) > 0 && subitemsBoardID != "" {
					if updErr := c.UpdateColumnValues(verifyCtx, subitemsBoardID, item.ID, columnValues); updErr != nil {
						c.l.Warnf(verifyCtx, "recovered subitem %s but column re-apply failed: %v", item.ID, updErr)
					}
				}
				return item, nil
			}
		}
		return Item{}, fmt.Errorf("create subitem %q: %w", name, err)
	}

	var created struct {
		CreateSubitem Item `json:"create_subitem"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return Item{}, fmt.Errorf("decode created subitem: %w", err)
	}
	return created.CreateSubitem, nil
}

func (c *Client) findSubitem(ctx context.Context, parentID, name string) (Item, bool) {
	data, err := c.Execute(ctx, subitemsOfParentQuery, map[string]any{"parentID": []string{parentID}})
	if err != nil {
		return Item{}, false
	}
	var result struct {
		Items []struct {
			Subitems []Item `json:"subitems"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return Item{}, false
	}
	for _, parent := range result.Items {
		for _, sub := range parent.Subitems {
			if sub.Name == name {
				return sub, true
			}
		}
	}
	return Item{}, false
}

const changeColumnValuesMutation = `
mutation ($boardID: ID!, $itemID: ID!, $columnValues: JSON!) {
  change_multiple_column_values(board_id: $boardID, item_id: $itemID, column_values: $columnValues, create_labels_if_missing: true) { id }
}`

// UpdateColumnValues sets several column values on an existing item.
func (c *Client) UpdateColumnValues(ctx context.Context, boardID, itemID string, columnValues map[string]any) error {
	values, err := json.Marshal(columnValues)
	if err != nil {
		return fmt.Errorf("encode column values: %w", err)
	}
	_, err = c.Execute(ctx, changeColumnValuesMutation, map[string]any{
		"boardID":      boardID,
		"itemID":       itemID,
		"columnValues": string(values),
	})
	if err != nil {
		return fmt.Errorf("update columns on item %s: %w", itemID, err)
	}
	return nil
}
