package models

// Address is one raw input address together with its position in the
// submitted batch. The index reconstructs output order after concurrent,
// out-of-order completion.
type Address struct {
	Raw   string // Raw is the address text as submitted.
	Index int    // Index is the position in the original batch.
}

// JobStatus describes the lifecycle of a batch job.
type JobStatus string

const (
	// JobPending means the job is accepted but tasks are not yet dispatched.
	JobPending JobStatus = "pending"
	// JobRunning means tasks are dispatched and results are arriving.
	JobRunning JobStatus = "running"
	// JobCompleted means every index has a terminal result.
	JobCompleted JobStatus = "completed"
	// JobFailed means a job-level error aborted the batch (invalid input or
	// cancellation). Individual address failures never fail the job.
	JobFailed JobStatus = "failed"
)

// Job is one batch geocoding job: an ordered list of addresses and a
// result slot per input index, populated incrementally by the workers.
// Jobs live for a single request and are never shared between requests.
type Job struct {
	ID        string          // ID is the unique job identifier.
	Addresses []Address       // Addresses in submission order.
	Results   []GeocodeResult // Results indexed by Address.Index.
	Status    JobStatus       // Status is the current lifecycle state.
}
