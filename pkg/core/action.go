package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind names an action variant.
type Kind string

const (
	KindNoop                      Kind = "NOOP"
	KindSetCollapsed              Kind = "SET_COLLAPSED"
	KindReceiveState              Kind = "RECEIVE_STATE"
	KindReceiveAccount            Kind = "RECEIVE_ACCOUNT"
	KindReceiveComment            Kind = "RECEIVE_COMMENT"
	KindReceiveContent            Kind = "RECEIVE_CONTENT"
	KindLinkReply                 Kind = "LINK_REPLY"
	KindUpdateAccountWitnessVote  Kind = "UPDATE_ACCOUNT_WITNESS_VOTE"
	KindUpdateAccountWitnessProxy Kind = "UPDATE_ACCOUNT_WITNESS_PROXY"
	KindDeleteContent             Kind = "DELETE_CONTENT"
	KindVoted                     Kind = "VOTED"
	KindFetchingData              Kind = "FETCHING_DATA"
	KindReceiveData               Kind = "RECEIVE_DATA"
	KindReceiveRecentPosts        Kind = "RECEIVE_RECENT_POSTS"
	KindRequestMeta               Kind = "REQUEST_META"
	KindReceiveMeta               Kind = "RECEIVE_META"
	KindSetMetadata               Kind = "SET_METADATA"
	KindClearMeta                 Kind = "CLEAR_META"
	KindClearMetaElement          Kind = "CLEAR_META_ELEMENT"
	KindSet                       Kind = "SET"
	KindRemove                    Kind = "REMOVE"
	KindUpdate                    Kind = "UPDATE"
	KindFetchJSON                 Kind = "FETCH_JSON"
	KindFetchJSONResult           Kind = "FETCH_JSON_RESULT"
)

// Kinds lists every action kind the reducer understands.
var Kinds = []Kind{
	KindNoop, KindSetCollapsed, KindReceiveState, KindReceiveAccount,
	KindReceiveComment, KindReceiveContent, KindLinkReply,
	KindUpdateAccountWitnessVote, KindUpdateAccountWitnessProxy,
	KindDeleteContent, KindVoted, KindFetchingData, KindReceiveData,
	KindReceiveRecentPosts, KindRequestMeta, KindReceiveMeta, KindSetMetadata,
	KindClearMeta, KindClearMetaElement, KindSet, KindRemove, KindUpdate,
	KindFetchJSON, KindFetchJSONResult,
}

// Action is one state transition request. Validate checks the fields the
// kind requires; Reduce itself never validates.
type Action interface {
	Kind() Kind
	Validate() error
}

// Noop leaves the store unchanged.
type Noop struct{}

func (Noop) Kind() Kind      { return KindNoop }
func (Noop) Validate() error { return nil }

type SetCollapsed struct {
	Post      string
	Collapsed any
}

func (SetCollapsed) Kind() Kind        { return KindSetCollapsed }
func (a SetCollapsed) Validate() error { return required(a.Kind(), "post", a.Post) }

// ReceiveState merges a full state snapshot.
type ReceiveState struct {
	Content  map[string]Payload
	Accounts map[string]Payload
	// DiscussionIdx is category -> order -> content keys.
	DiscussionIdx map[string]map[string][]string
	// Extra holds the remaining top-level sections of the snapshot.
	Extra Payload
}

func (ReceiveState) Kind() Kind      { return KindReceiveState }
func (ReceiveState) Validate() error { return nil }

type ReceiveAccount struct {
	Account Payload
}

func (ReceiveAccount) Kind() Kind { return KindReceiveAccount }
func (a ReceiveAccount) Validate() error {
	name, _ := a.Account["name"].(string)
	return required(a.Kind(), "account.name", name)
}

// ReceiveComment carries a comment operation as broadcast.
type ReceiveComment struct {
	Op Payload
}

func (ReceiveComment) Kind() Kind        { return KindReceiveComment }
func (a ReceiveComment) Validate() error { return validateNode(a.Kind(), "op", a.Op) }

type ReceiveContent struct {
	Content Payload
}

func (ReceiveContent) Kind() Kind        { return KindReceiveContent }
func (a ReceiveContent) Validate() error { return validateNode(a.Kind(), "content", a.Content) }

func validateNode(kind Kind, field string, p Payload) error {
	author, _ := p["author"].(string)
	if err := required(kind, field+".author", author); err != nil {
		return err
	}
	permlink, _ := p["permlink"].(string)
	return required(kind, field+".permlink", permlink)
}

type LinkReply struct {
	Author         string
	Permlink       string
	ParentAuthor   string
	ParentPermlink string
}

func (LinkReply) Kind() Kind { return KindLinkReply }
func (a LinkReply) Validate() error {
	if err := required(a.Kind(), "author", a.Author); err != nil {
		return err
	}
	return required(a.Kind(), "permlink", a.Permlink)
}

type UpdateAccountWitnessVote struct {
	Account string
	Witness string
	Approve bool
}

func (UpdateAccountWitnessVote) Kind() Kind { return KindUpdateAccountWitnessVote }
func (a UpdateAccountWitnessVote) Validate() error {
	if err := required(a.Kind(), "account", a.Account); err != nil {
		return err
	}
	return required(a.Kind(), "witness", a.Witness)
}

type UpdateAccountWitnessProxy struct {
	Account string
	Proxy   string
}

func (UpdateAccountWitnessProxy) Kind() Kind { return KindUpdateAccountWitnessProxy }
func (a UpdateAccountWitnessProxy) Validate() error {
	return required(a.Kind(), "account", a.Account)
}

type DeleteContent struct {
	Author   string
	Permlink string
}

func (DeleteContent) Kind() Kind { return KindDeleteContent }
func (a DeleteContent) Validate() error {
	if err := required(a.Kind(), "author", a.Author); err != nil {
		return err
	}
	return required(a.Kind(), "permlink", a.Permlink)
}

// Voted records a vote cast locally. Weight is in basis points, negative for
// downvotes.
type Voted struct {
	Username string
	Author   string
	Permlink string
	Weight   int
}

func (Voted) Kind() Kind { return KindVoted }
func (a Voted) Validate() error {
	if err := required(a.Kind(), "username", a.Username); err != nil {
		return err
	}
	if err := required(a.Kind(), "author", a.Author); err != nil {
		return err
	}
	return required(a.Kind(), "permlink", a.Permlink)
}

type FetchingData struct {
	Order    string
	Category string
}

func (FetchingData) Kind() Kind        { return KindFetchingData }
func (a FetchingData) Validate() error { return required(a.Kind(), "order", a.Order) }

// ReceiveData is one page of a feed. An empty Category is the shared bucket.
type ReceiveData struct {
	Data        []Payload
	Order       string
	Category    string
	Accountname string
}

func (ReceiveData) Kind() Kind { return KindReceiveData }
func (a ReceiveData) Validate() error {
	if err := required(a.Kind(), "order", a.Order); err != nil {
		return err
	}
	if IsPrimaryFeed(a.Order) {
		if err := required(a.Kind(), "accountname", a.Accountname); err != nil {
			return err
		}
	}
	for i, p := range a.Data {
		if err := validateNode(a.Kind(), fmt.Sprintf("data[%d]", i), p); err != nil {
			return err
		}
	}
	return nil
}

type ReceiveRecentPosts struct {
	Data []Payload
}

func (ReceiveRecentPosts) Kind() Kind { return KindReceiveRecentPosts }
func (a ReceiveRecentPosts) Validate() error {
	for i, p := range a.Data {
		if err := validateNode(a.Kind(), fmt.Sprintf("data[%d]", i), p); err != nil {
			return err
		}
	}
	return nil
}

type RequestMeta struct {
	ID   string
	Link string
}

func (RequestMeta) Kind() Kind        { return KindRequestMeta }
func (a RequestMeta) Validate() error { return required(a.Kind(), "id", a.ID) }

type ReceiveMeta struct {
	ID   string
	Meta Payload
}

func (ReceiveMeta) Kind() Kind        { return KindReceiveMeta }
func (a ReceiveMeta) Validate() error { return required(a.Kind(), "id", a.ID) }

type SetMetadata struct {
	ID   string
	Meta Payload
}

func (SetMetadata) Kind() Kind        { return KindSetMetadata }
func (a SetMetadata) Validate() error { return required(a.Kind(), "id", a.ID) }

type ClearMeta struct {
	ID string
}

func (ClearMeta) Kind() Kind        { return KindClearMeta }
func (a ClearMeta) Validate() error { return required(a.Kind(), "id", a.ID) }

type ClearMetaElement struct {
	FormID  string
	Element string
}

func (ClearMetaElement) Kind() Kind { return KindClearMetaElement }
func (a ClearMetaElement) Validate() error {
	if err := required(a.Kind(), "formId", a.FormID); err != nil {
		return err
	}
	return required(a.Kind(), "element", a.Element)
}

// SetPath writes Value at Key. The first key element names the section.
type SetPath struct {
	Key   []string
	Value any
}

func (SetPath) Kind() Kind { return KindSet }
func (a SetPath) Validate() error {
	if err := validatePath(a.Kind(), a.Key, true); err != nil {
		return err
	}
	return validatePathValue(a.Kind(), a.Key, a.Value)
}

type RemovePath struct {
	Key []string
}

func (RemovePath) Kind() Kind        { return KindRemove }
func (a RemovePath) Validate() error { return validatePath(a.Kind(), a.Key, false) }

// UpdatePath replaces the value at Key with Updater(current). NotSet stands
// in for current when nothing is stored there.
type UpdatePath struct {
	Key     []string
	NotSet  any
	Updater func(any) any
}

func (UpdatePath) Kind() Kind { return KindUpdate }
func (a UpdatePath) Validate() error {
	if a.Updater == nil {
		return &ValidationError{Kind: a.Kind(), Field: "updater"}
	}
	return validatePath(a.Kind(), a.Key, true)
}

// FetchJSON asks the effects layer to fetch URL. The store is unchanged.
type FetchJSON struct {
	ID   string
	URL  string
	Body any
}

// NewFetchJSON builds a request with a fresh id.
func NewFetchJSON(url string, body any) FetchJSON {
	return FetchJSON{ID: uuid.NewString(), URL: url, Body: body}
}

func (FetchJSON) Kind() Kind { return KindFetchJSON }
func (a FetchJSON) Validate() error {
	if err := validateResultID(a.Kind(), a.ID); err != nil {
		return err
	}
	return required(a.Kind(), "url", a.URL)
}

type FetchJSONResult struct {
	ID     string
	Result any
	Error  string
}

func (FetchJSONResult) Kind() Kind        { return KindFetchJSONResult }
func (a FetchJSONResult) Validate() error { return validateResultID(a.Kind(), a.ID) }

// validateResultID rejects ids that would shadow a typed section once the
// result is stored at the top level.
func validateResultID(kind Kind, id string) error {
	if err := required(kind, "id", id); err != nil {
		return err
	}
	if isSection(id) {
		return &ValidationError{Kind: kind, Field: "id", Reason: "names a store section"}
	}
	return nil
}
