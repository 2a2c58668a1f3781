// ABOUTME: SQL job submission, polling, and paginated result fetch.
// ABOUTME: RunQuery is the one-call submit-wait-collect convenience.

package dremio

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Job states reported by the jobs API. A job is done once it reaches
// COMPLETED, CANCELED, or FAILED.
const (
	JobStateCompleted = "COMPLETED"
	JobStateCanceled  = "CANCELED"
	JobStateFailed    = "FAILED"
)

// resultPageSize caps how many rows one results request fetches.
const resultPageSize = 500

// Job is the subset of the job status document the client acts on.
type Job struct {
	JobState           string `json:"jobState"`
	RowCount           int    `json:"rowCount"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
	CancellationReason string `json:"cancellationReason,omitempty"`
	QueryType          string `json:"queryType,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	switch j.JobState {
	case JobStateCompleted, JobStateCanceled, JobStateFailed:
		return true
	}
	return false
}

// JobError describes a job that finished without succeeding.
type JobError struct {
	JobID   string
	State   string
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s %s: %s", e.JobID, e.State, e.Message)
}

// ResultColumn names one column of a query result and its SQL type.
type ResultColumn struct {
	Name string `json:"name"`
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
}

type resultPage struct {
	RowCount int              `json:"rowCount"`
	Schema   []ResultColumn   `json:"schema"`
	Rows     []map[string]any `json:"rows"`
}

// QueryResult is the collected outcome of one SQL query.
type QueryResult struct {
	Columns []ResultColumn
	Rows    []map[string]any
}

// ColumnNames returns the result column names in declared order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// SubmitSQL posts a query for execution and returns the job id.
func (c *Client) SubmitSQL(ctx context.Context, sql string) (string, error) {
	var submission struct {
		ID string `json:"id"`
	}
	body := map[string]string{"sql": sql}
	if err := c.post(ctx, c.apiPath()+"/sql", body, &submission); err != nil {
		return "", err
	}
	return submission.ID, nil
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.get(ctx, c.apiPath()+"/job/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJob polls a job until it reaches a terminal state, honoring
// cancellation between polls. A job that ends unsuccessfully is
// returned as a JobError.
func (c *Client) WaitForJob(ctx context.Context, jobID string) (*Job, error) {
	for {
		job, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Done() {
			if job.JobState != JobStateCompleted {
				msg := job.ErrorMessage
				if msg == "" && job.JobState == JobStateCanceled {
					msg = job.CancellationReason
				}
				if msg == "" {
					msg = "unknown error"
				}
				return nil, &JobError{JobID: jobID, State: job.JobState, Message: msg}
			}
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// JobResults fetches one page of a completed job's results.
func (c *Client) JobResults(ctx context.Context, jobID string, offset, limit int) (int, []ResultColumn, []map[string]any, error) {
	query := url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	var page resultPage
	if err := c.get(ctx, c.apiPath()+"/job/"+jobID+"/results", query, &page); err != nil {
		return 0, nil, nil, err
	}
	return page.RowCount, page.Schema, page.Rows, nil
}

// RunQuery submits a query, waits for it, and collects every result
// page in row order.
func (c *Client) RunQuery(ctx context.Context, sql string) (*QueryResult, error) {
	jobID, err := c.SubmitSQL(ctx, sql)
	if err != nil {
		return nil, err
	}

	job, err := c.WaitForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RowCount == 0 {
		return &QueryResult{}, nil
	}

	limit := resultPageSize
	if job.RowCount < limit {
		limit = job.RowCount
	}

	result := &QueryResult{Rows: make([]map[string]any, 0, job.RowCount)}
	for offset := 0; offset < job.RowCount; offset += limit {
		_, schema, rows, err := c.JobResults(ctx, jobID, offset, limit)
		if err != nil {
			return nil, err
		}
		if result.Columns == nil {
			result.Columns = schema
		}
		result.Rows = append(result.Rows, rows...)
	}
	return result, nil
}
