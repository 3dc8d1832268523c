package decoy

import "sync"

// registration pairs a callback with the token that removes it. Tokens are
// compared by identity, so two registrations of the same callback stay
// distinguishable.
type registration struct {
	token    *Token
	callback Callback
}

// registry holds the callback chain plus the two out-of-band callbacks. All
// accessors are safe for concurrent use; dispatch works off a snapshot, so
// mutations during a dispatch affect only subsequent requests.
type registry struct {
	mu          sync.Mutex
	chain       []registration
	listenError func(error)
	unhandled   UnhandledCallback
}

func (r *registry) add(cb Callback) *Token {
	token := new(Token)

	r.mu.Lock()
	r.chain = append(r.chain, registration{token: token, callback: cb})
	r.mu.Unlock()

	return token
}

func (r *registry) remove(token *Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.chain {
		if reg.token == token {
			r.chain = append(r.chain[:i], r.chain[i+1:]...)
			return
		}
	}
}

func (r *registry) clear() {
	r.mu.Lock()
	r.chain = nil
	r.mu.Unlock()
}

func (r *registry) snapshot() ([]Callback, UnhandledCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	callbacks := make([]Callback, len(r.chain))
	for i, reg := range r.chain {
		callbacks[i] = reg.callback
	}

	return callbacks, r.unhandled
}

func (r *registry) setListenError(cb func(error)) {
	r.mu.Lock()
	r.listenError = cb
	r.mu.Unlock()
}

func (r *registry) getListenError() func(error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listenError
}

func (r *registry) setUnhandled(cb UnhandledCallback) {
	r.mu.Lock()
	r.unhandled = cb
	r.mu.Unlock()
}

func (r *registry) getUnhandled() UnhandledCallback {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.unhandled
}
