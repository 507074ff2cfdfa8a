package core

func (s *Store) putMeta(id string, fields OrderedMap) *Store {
	if prev, ok := s.Meta(id); ok && prev.Equal(fields) {
		return s
	}
	return s.withMeta(id, fields)
}

func requestMeta(s *Store, a RequestMeta) *Store {
	return s.putMeta(a.ID, OrderedMapOf("link", a.Link))
}

func receiveMeta(s *Store, a ReceiveMeta) *Store {
	prev, _ := s.Meta(a.ID)
	return s.putMeta(a.ID, prev.Merge(normalizeFields(a.Meta)))
}

func setMetadata(s *Store, a SetMetadata) *Store {
	return s.putMeta(a.ID, normalizeFields(a.Meta))
}

func clearMeta(s *Store, a ClearMeta) *Store {
	if _, ok := s.Meta(a.ID); !ok {
		return s
	}
	return s.withoutMeta(a.ID)
}

func clearMetaElement(s *Store, a ClearMetaElement) *Store {
	prev, ok := s.Meta(a.FormID)
	if !ok || !prev.Has(a.Element) {
		return s
	}
	return s.withMeta(a.FormID, prev.Delete(a.Element))
}

// fetchJSONResult stores the outcome of a FETCH_JSON request at the top level,
// under the request id.
func fetchJSONResult(s *Store, a FetchJSONResult) *Store {
	var errValue any
	if a.Error != "" {
		errValue = a.Error
	}
	v := OrderedMapOf("result", a.Result, "error", errValue)
	if prev, ok := s.Extra(a.ID); ok && valueEqual(prev, v) {
		return s
	}
	return s.withExtra(a.ID, v)
}
