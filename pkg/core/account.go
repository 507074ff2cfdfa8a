package core

const (
	fieldWitnessVotes = "witness_votes"
	fieldProxy        = "proxy"
)

// putAccount stores fields under name unless they are already there.
func (s *Store) putAccount(name string, fields OrderedMap) *Store {
	if prev, ok := s.Account(name); ok && prev.Equal(fields) {
		return s
	}
	return s.withAccount(name, fields)
}

// ingestAccount fixes the shape of a server account record: lists become
// List, maps become OrderedMap, and a list of witness names becomes a
// WitnessSet. A numeric witness_votes count is kept as is.
func ingestAccount(p Payload) OrderedMap {
	return ingestFields(normalizeFields(p))
}

func ingestFields(fields OrderedMap) OrderedMap {
	if l, ok := fields.values[fieldWitnessVotes].(List); ok {
		fields = fields.Set(fieldWitnessVotes, NewWitnessSet(l.Strings()...))
	}
	return fields
}

func mergeAccount(s *Store, name string, fields OrderedMap) *Store {
	prev, _ := s.Account(name)
	return s.putAccount(name, prev.Merge(fields))
}

func receiveAccount(s *Store, a ReceiveAccount) *Store {
	fields := ingestAccount(a.Account)
	name, _ := fields.Get("name")
	return mergeAccount(s, textOf(name), fields)
}

// witnessVote toggles one witness in the account's vote set. The first toggle
// replaces a server-side count with a set. Removing the last witness drops
// the field, and an account left with no fields is dropped too, so approving
// and then unapproving leaves the store as it was.
func witnessVote(s *Store, a UpdateAccountWitnessVote) *Store {
	acct, found := s.Account(a.Account)
	current, _ := acct.Get(fieldWitnessVotes)
	set, isSet := current.(WitnessSet)

	if a.Approve {
		next := set.Add(a.Witness)
		if isSet && next.Len() == set.Len() {
			return s
		}
		return s.withAccount(a.Account, acct.Set(fieldWitnessVotes, next))
	}

	if !found {
		return s
	}
	next := set.Remove(a.Witness)
	if isSet && next.Len() == set.Len() {
		return s
	}
	if next.Len() == 0 {
		acct = acct.Delete(fieldWitnessVotes)
	} else {
		acct = acct.Set(fieldWitnessVotes, next)
	}
	if acct.Len() == 0 {
		return s.withoutAccount(a.Account)
	}
	return s.putAccount(a.Account, acct)
}

func witnessProxy(s *Store, a UpdateAccountWitnessProxy) *Store {
	acct, _ := s.Account(a.Account)
	return s.putAccount(a.Account, acct.Set(fieldProxy, a.Proxy))
}
