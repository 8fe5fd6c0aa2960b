package checklist

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithCommitConcurrency lets CommitAllChanges write up to n different
// records at once. Values below 2 keep commits sequential.
func WithCommitConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithCommitAdapter registers fn at construction time.
func WithCommitAdapter(fn CommitAdapter) Option {
	return func(r *Reconciler) {
		r.adapter = fn
	}
}
