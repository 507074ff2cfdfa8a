package core

// Reduce returns the store that results from applying a to state. A nil
// state is the default store. Unknown actions return state itself, so
// Reduce(nil, Noop{}) is Default().
//
// Reduce never mutates state and does not validate a; callers that accept
// actions from outside should call Validate first (Service does).
func Reduce(state *Store, a Action) *Store {
	if state == nil {
		state = Default()
	}

	switch a := a.(type) {
	case SetCollapsed:
		return setCollapsed(state, a)
	case ReceiveState:
		return receiveState(state, a)
	case ReceiveAccount:
		return receiveAccount(state, a)
	case ReceiveComment:
		return receiveComment(state, a)
	case ReceiveContent:
		return receiveContent(state, a)
	case LinkReply:
		return linkReply(state, a)
	case UpdateAccountWitnessVote:
		return witnessVote(state, a)
	case UpdateAccountWitnessProxy:
		return witnessProxy(state, a)
	case DeleteContent:
		return deleteContent(state, a)
	case Voted:
		return voted(state, a)
	case FetchingData:
		return fetchingData(state, a)
	case ReceiveData:
		return receiveData(state, a)
	case ReceiveRecentPosts:
		return receiveRecentPosts(state, a)
	case RequestMeta:
		return requestMeta(state, a)
	case ReceiveMeta:
		return receiveMeta(state, a)
	case SetMetadata:
		return setMetadata(state, a)
	case ClearMeta:
		return clearMeta(state, a)
	case ClearMetaElement:
		return clearMetaElement(state, a)
	case SetPath:
		return setPath(state, a)
	case RemovePath:
		return removePath(state, a)
	case UpdatePath:
		return updatePath(state, a)
	case FetchJSONResult:
		return fetchJSONResult(state, a)
	}
	// Noop, FetchJSON and anything unknown.
	return state
}

// ReduceAll folds actions over state in order.
func ReduceAll(state *Store, actions ...Action) *Store {
	for _, a := range actions {
		state = Reduce(state, a)
	}
	if state == nil {
		return Default()
	}
	return state
}
