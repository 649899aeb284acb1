package monitor

// multiHandler fans every callback out to several handlers in order.
type multiHandler []Handler

// MultiHandler combines handlers into one; callbacks are delivered in the
// order given. Nil entries are skipped.
func MultiHandler(handlers ...Handler) Handler {
	var hs multiHandler
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

func (m multiHandler) HandleReport(r Report) {
	for _, h := range m {
		h.HandleReport(r)
	}
}

func (m multiHandler) HandleAlert(e AlertEvent) {
	for _, h := range m {
		h.HandleAlert(e)
	}
}
