package searchbar

// Reduce applies ev to s and returns the next state plus the effects the
// host must run. It is pure: derived fields are recomputed here and nowhere else.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Focus:
		s.Open = true
		s.Highlighted = normalizeHighlight(s.Highlighted, len(s.Results), true)
		return s, nil

	case Input:
		s.Query = e.Query
		s.Open = true
		s.derive()
		s.Highlighted = -1
		if len(s.Results) > 0 {
			s.Highlighted = 0
		}
		if s.Async {
			return s.fetch(false)
		}
		return s, nil

	case OutsideClick:
		s.Open = false
		return s, nil

	case Key:
		return reduceKey(s, e.Code)

	case Click:
		if s.Status() != OpenWithResults || e.Index < 0 || e.Index >= len(s.Results) {
			return s, nil
		}
		s.Highlighted = e.Index
		s.Open = false
		return s, []Effect{Select{Entry: s.Results[e.Index]}}

	case Resize:
		s.PageSize = max(1, e.VisibleRows)
		return s, nil

	case Reload:
		if !s.Async {
			return s, nil
		}
		return s.fetch(true)

	case CandidatesLoaded:
		if e.Seq != s.Seq {
			return s, nil
		}
		s.Candidates = e.Candidates
		s.Loading = false
		s.Err = nil
		s.derive()
		s.Highlighted = normalizeHighlight(s.Highlighted, len(s.Results), s.Open)
		return s, nil

	case FetchFailed:
		if e.Seq != s.Seq {
			return s, nil
		}
		s.Loading = false
		s.Err = e.Err
		return s, nil
	}
	return s, nil
}

func (s State) fetch(immediate bool) (State, []Effect) {
	s.Seq++
	s.Loading = true
	return s, []Effect{Fetch{Query: s.Query, Seq: s.Seq, Immediate: immediate}}
}

func reduceKey(s State, code KeyCode) (State, []Effect) {
	if code == KeyEscape {
		s.Open = false
		return s, nil
	}

	n := len(s.Results)
	if s.Status() != OpenWithResults || n == 0 {
		return s, nil
	}

	cur := s.Highlighted
	switch code {
	case KeyArrowDown:
		if cur < 0 {
			s.Highlighted = 0
		} else {
			s.Highlighted = (cur + 1) % n
		}
	case KeyArrowUp:
		if cur < 0 {
			s.Highlighted = n - 1
		} else {
			s.Highlighted = (cur - 1 + n) % n
		}
	case KeyPageDown:
		s.Highlighted = wrap(max(cur, 0)+pageSize(s), n)
	case KeyPageUp:
		s.Highlighted = wrap(max(cur, 0)-pageSize(s), n)
	case KeyEnter:
		idx := cur
		if idx < 0 {
			idx = 0
		}
		s.Highlighted = idx
		s.Open = false
		return s, []Effect{Select{Entry: s.Results[idx]}}
	}
	return s, nil
}

func pageSize(s State) int {
	if s.PageSize < 1 {
		return 1
	}
	return s.PageSize
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// normalizeHighlight keeps the highlight inside [-1, n-1] after the result
// list changed. An open dropdown with results always highlights something.
func normalizeHighlight(h, n int, open bool) int {
	switch {
	case n == 0:
		return -1
	case h < 0 && open:
		return 0
	case h < 0:
		return -1
	default:
		return h % n
	}
}
