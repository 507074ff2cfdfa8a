package core

import (
	"fmt"
	"math"
	"strings"
)

// kindPrefix is the namespace action documents may carry, as in
// "global/RECEIVE_CONTENT".
const kindPrefix = "global/"

// ParseKind resolves an action type name. Case and an optional "global/"
// prefix are ignored.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	if len(name) >= len(kindPrefix) && strings.EqualFold(name[:len(kindPrefix)], kindPrefix) {
		name = name[len(kindPrefix):]
	}
	k := Kind(strings.ToUpper(name))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// DecodeAction builds an action from a generic document payload, as read
// from JSON or YAML. Field names follow the wire shapes (parent_author,
// formId, ...). The result is validated.
func DecodeAction(kind string, payload Payload) (Action, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	d := decoder{kind: k, p: payload}

	var a Action
	switch k {
	case KindNoop:
		a = Noop{}
	case KindSetCollapsed:
		a = SetCollapsed{Post: d.str("post"), Collapsed: d.raw("collapsed")}
	case KindReceiveState:
		a = d.receiveState()
	case KindReceiveAccount:
		a = ReceiveAccount{Account: d.payload("account")}
	case KindReceiveComment:
		a = ReceiveComment{Op: d.payload("op")}
	case KindReceiveContent:
		a = ReceiveContent{Content: d.payload("content")}
	case KindLinkReply:
		a = LinkReply{
			Author:         d.str("author"),
			Permlink:       d.str("permlink"),
			ParentAuthor:   d.str("parent_author"),
			ParentPermlink: d.str("parent_permlink"),
		}
	case KindUpdateAccountWitnessVote:
		a = UpdateAccountWitnessVote{
			Account: d.str("account"),
			Witness: d.str("witness"),
			Approve: d.boolean("approve"),
		}
	case KindUpdateAccountWitnessProxy:
		a = UpdateAccountWitnessProxy{Account: d.str("account"), Proxy: d.str("proxy")}
	case KindDeleteContent:
		a = DeleteContent{Author: d.str("author"), Permlink: d.str("permlink")}
	case KindVoted:
		a = Voted{
			Username: d.str("username"),
			Author:   d.str("author"),
			Permlink: d.str("permlink"),
			Weight:   d.integer("weight"),
		}
	case KindFetchingData:
		a = FetchingData{Order: d.str("order"), Category: d.category("category")}
	case KindReceiveData:
		a = ReceiveData{
			Data:        d.payloads("data"),
			Order:       d.str("order"),
			Category:    d.category("category"),
			Accountname: d.str("accountname"),
		}
	case KindReceiveRecentPosts:
		a = ReceiveRecentPosts{Data: d.payloads("data")}
	case KindRequestMeta:
		a = RequestMeta{ID: d.str("id"), Link: d.str("link")}
	case KindReceiveMeta:
		a = ReceiveMeta{ID: d.str("id"), Meta: d.payload("meta")}
	case KindSetMetadata:
		a = SetMetadata{ID: d.str("id"), Meta: d.payload("meta")}
	case KindClearMeta:
		a = ClearMeta{ID: d.str("id")}
	case KindClearMetaElement:
		a = ClearMetaElement{FormID: d.str("formId"), Element: d.str("element")}
	case KindSet:
		a = SetPath{Key: d.path("key"), Value: d.raw("value")}
	case KindRemove:
		a = RemovePath{Key: d.path("key")}
	case KindUpdate:
		return nil, &ValidationError{Kind: k, Field: "updater", Reason: "cannot be read from a document"}
	case KindFetchJSON:
		a = FetchJSON{ID: d.str("id"), URL: d.str("url"), Body: d.raw("body")}
	case KindFetchJSONResult:
		a = FetchJSONResult{ID: d.str("id"), Result: d.raw("result"), Error: d.str("error")}
	}

	if d.err != nil {
		return nil, d.err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// decoder reads typed fields out of a payload and keeps the first shape error.
type decoder struct {
	kind Kind
	p    Payload
	err  error
}

func (d *decoder) fail(field, reason string) {
	if d.err == nil {
		d.err = &ValidationError{Kind: d.kind, Field: field, Reason: reason}
	}
}

func (d *decoder) raw(field string) any { return d.p[field] }

// str reads a scalar as text. Falsy values (missing, null, false) read as "".
func (d *decoder) str(field string) string {
	switch v := d.p[field].(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return ""
	case OrderedMap, List, map[string]any, []any:
		d.fail(field, "must be a scalar")
		return ""
	default:
		return textOf(Normalize(v))
	}
}

// category reads a bucket category. Numeric zero is falsy too and lands in
// the shared "" bucket.
func (d *decoder) category(field string) string {
	if f, ok := toFloat(Normalize(d.p[field])); ok && (f == 0 || math.IsNaN(f)) {
		return ""
	}
	return d.str(field)
}

func (d *decoder) boolean(field string) bool {
	switch v := d.p[field].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v == "true"
	}
	d.fail(field, "must be a boolean")
	return false
}

func (d *decoder) integer(field string) int {
	v, ok := d.p[field]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat(Normalize(v))
	if !ok {
		d.fail(field, "must be a number")
		return 0
	}
	return int(f)
}

func (d *decoder) payload(field string) Payload {
	v, ok := d.p[field]
	if !ok || v == nil {
		return nil
	}
	p, ok := toPayload(v)
	if !ok {
		d.fail(field, "must be a map")
	}
	return p
}

func (d *decoder) payloads(field string) []Payload {
	v, ok := d.p[field]
	if !ok || v == nil {
		return nil
	}
	l, ok := Normalize(v).(List)
	if !ok {
		d.fail(field, "must be a list")
		return nil
	}
	out := make([]Payload, 0, l.Len())
	for i, it := range l.items {
		p, ok := toPayload(it)
		if !ok {
			d.fail(fmt.Sprintf("%s[%d]", field, i), "must be a map")
			return nil
		}
		out = append(out, p)
	}
	return out
}

// path accepts a list of segments or a dotted string.
func (d *decoder) path(field string) []string {
	switch v := Normalize(d.p[field]).(type) {
	case nil:
		return nil
	case string:
		return strings.Split(v, ".")
	case List:
		out := make([]string, 0, v.Len())
		for _, it := range v.items {
			out = append(out, textOf(it))
		}
		return out
	}
	d.fail(field, "must be a list or a dotted path")
	return nil
}

func (d *decoder) receiveState() ReceiveState {
	var a ReceiveState
	for k, v := range d.p {
		switch k {
		case SectionContent:
			a.Content = d.payloadMap(k, v)
		case SectionAccounts:
			a.Accounts = d.payloadMap(k, v)
		case SectionIndex:
			a.DiscussionIdx = d.index(k, v)
		default:
			if a.Extra == nil {
				a.Extra = Payload{}
			}
			a.Extra[k] = v
		}
	}
	return a
}

func (d *decoder) payloadMap(field string, v any) map[string]Payload {
	m, ok := asFields(v)
	if !ok {
		d.fail(field, "must be a map")
		return nil
	}
	out := make(map[string]Payload, m.Len())
	m.Range(func(k string, entry any) bool {
		p, ok := toPayload(entry)
		if !ok {
			d.fail(field+"."+k, "must be a map")
			return false
		}
		out[k] = p
		return true
	})
	return out
}

func (d *decoder) index(field string, v any) map[string]map[string][]string {
	m, ok := asFields(v)
	if !ok {
		d.fail(field, "must be a map")
		return nil
	}
	out := make(map[string]map[string][]string, m.Len())
	m.Range(func(category string, orders any) bool {
		om, ok := orders.(OrderedMap)
		if !ok {
			d.fail(field+"."+category, "must be a map")
			return false
		}
		out[category] = make(map[string][]string, om.Len())
		om.Range(func(order string, keys any) bool {
			l, ok := keys.(List)
			if !ok {
				d.fail(field+"."+category+"."+order, "must be a list")
				return false
			}
			out[category][order] = l.Strings()
			return true
		})
		return d.err == nil
	})
	return out
}

func toPayload(v any) (Payload, bool) {
	if p, ok := v.(map[string]any); ok {
		return p, true
	}
	m, ok := asFields(v)
	if !ok {
		return nil, false
	}
	return m.ToPayload(), true
}
