package jobs

type JobType string

const (
	JobOrderConfirmation  JobType = "order.confirmation"
	JobOrderStatusChanged JobType = "order.status_changed"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobOrderConfirmation, JobOrderStatusChanged:
		return true
	default:
		return false
	}
}
