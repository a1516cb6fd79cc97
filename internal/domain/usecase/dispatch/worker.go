package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/port/llm"
)

// executeEntry runs one claimed queue entry end to end: create the scan row,
// reserve worst-case cost, walk the query x model matrix, then consume or
// release. Any panic is captured and reflected in queue/scan state.
func (d *Dispatcher) executeEntry(ctx context.Context, entry *entity.QueueEntry, workerID int) {
	var scan *entity.Scan
	var reservation *entity.Reservation

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Worker panic captured", map[string]any{
				"worker_id": workerID,
				"entry_id":  entry.ID,
				"panic":     fmt.Sprintf("%v", r),
			})
			d.failScanAndEntry(ctx, scan, reservation, entry, "internal error during scan execution")
		}
	}()

	project, err := d.projects.GetByID(ctx, entry.ProjectID)
	if err != nil {
		d.failEntry(ctx, entry, "project lookup failed: "+err.Error())
		return
	}

	scan, err = entity.NewScan(project.ID, entry.UserID, len(project.Queries), d.timeProvider)
	if err == nil {
		err = d.scans.Create(ctx, scan)
	}
	if err != nil {
		scan = nil
		d.failEntry(ctx, entry, "failed to create scan: "+err.Error())
		return
	}

	totalCalls := project.CallCount()
	entry.AttachScan(scan.ID, d.timeProvider)
	entry.UpdateProgress(0, totalCalls, "starting scan", d.timeProvider)
	if err := d.queue.Update(ctx, entry); err != nil {
		d.failScanAndEntry(ctx, scan, nil, entry, "failed to update queue entry: "+err.Error())
		return
	}

	estimate, err := d.estimateCost(project)
	if err != nil {
		d.failScanAndEntry(ctx, scan, nil, entry, "pricing unavailable: "+err.Error())
		return
	}

	reservation, err = d.ledger.Reserve(ctx, entry.UserID, estimate, scan.ID)
	if err != nil {
		msg := "could not reserve credits: " + err.Error()
		if errs.IsInsufficientFundsError(err) {
			msg = fmt.Sprintf("insufficient credits: this scan needs an estimated %s, top up your balance to run it",
				entity.AmountInCentsToString(estimate))
		}
		d.failScanAndEntry(ctx, scan, nil, entry, msg)
		return
	}

	outcome := d.runMatrix(ctx, project, scan, entry, totalCalls)

	switch {
	case outcome.stopped:
		// The stop request already released the reservation; the release
		// here is an idempotent no-op if so.
		if _, err := d.ledger.ReleaseForScan(ctx, scan.ID, "scan stopped"); err != nil {
			d.logger.Error("Failed to release reservation after stop", map[string]any{
				"scan_id": scan.ID,
				"error":   err.Error(),
			})
		}
		d.closeEntryCompleted(ctx, entry, "scan stopped")

	case outcome.fatal != "":
		d.failScanAndEntry(ctx, scan, reservation, entry, outcome.fatal)

	default:
		d.finishScan(ctx, scan, reservation, entry, outcome)
	}
}

// matrixOutcome accumulates the result of walking one scan's matrix
type matrixOutcome struct {
	actualCents int64
	successes   int
	calls       int
	stopped     bool
	fatal       string
}

// runMatrix executes every query against every model sequentially. A failed
// call is recorded as a failed result row and the scan continues, unless it
// is the very first call (systemic failure) or every call fails. Between
// calls the worker re-reads scan status: a scan no longer running is the
// advisory stop signal and the worker ceases without error.
func (d *Dispatcher) runMatrix(ctx context.Context, project *entity.Project, scan *entity.Scan, entry *entity.QueueEntry, totalCalls int) matrixOutcome {
	var out matrixOutcome

	for _, query := range project.Queries {
		for _, ref := range project.Models {
			if out.calls > 0 && !d.scanStillRunning(ctx, scan.ID) {
				out.stopped = true
				return out
			}

			price, err := d.pricer.PriceFor(ref.Provider, ref.Model)
			if err != nil {
				out.calls++
				d.recordFailure(ctx, scan.ID, query, ref, "pricing unavailable: "+err.Error())
				continue
			}

			resp, err := d.callModel(ctx, project, query, ref)
			out.calls++
			if err != nil {
				provErr := classifyProviderError(ref, err)
				d.logger.Warn("Model call failed", map[string]any{
					"scan_id":  scan.ID,
					"provider": ref.Provider,
					"model":    ref.Model,
					"error":    provErr.Error(),
				})
				d.recordFailure(ctx, scan.ID, query, ref, userFacingProviderMessage(provErr))
				if out.calls == 1 {
					out.fatal = "first model call failed, aborting scan: " + userFacingProviderMessage(provErr)
					return out
				}
				continue
			}

			cost := llm.CostCents(price, resp.TokensIn, resp.TokensOut)
			out.actualCents += cost
			out.successes++

			result := entity.NewScanResult(scan.ID, query, ref.Provider, ref.Model,
				resp.Text, resp.TokensIn, resp.TokensOut, cost, d.timeProvider)
			d.applyMetrics(ctx, result, project)
			if err := d.results.Create(ctx, result); err != nil {
				d.logger.Error("Failed to persist scan result", map[string]any{
					"scan_id": scan.ID,
					"error":   err.Error(),
				})
			}

			entry.UpdateProgress(out.calls, totalCalls,
				fmt.Sprintf("%d/%d model responses collected", out.calls, totalCalls), d.timeProvider)
			if err := d.queue.Update(ctx, entry); err != nil {
				if errors.Is(err, errs.ErrEntryNotRunning) {
					// A repair or stop already closed this entry; whoever did
					// owns the reservation too.
					d.logger.Warn("Queue entry left running state, standing down", map[string]any{
						"entry_id": entry.ID,
						"scan_id":  scan.ID,
					})
					out.stopped = true
					return out
				}
				d.logger.Warn("Failed to update progress", map[string]any{
					"entry_id": entry.ID,
					"error":    err.Error(),
				})
			}
		}
	}

	if out.successes == 0 && out.calls > 0 {
		out.fatal = "every model call failed"
	}
	return out
}

// callModel runs one bounded provider call
func (d *Dispatcher) callModel(ctx context.Context, project *entity.Project, query string, ref entity.ModelRef) (*llm.ModelResponse, error) {
	callCtx, cancel := d.timeProvider.WithTimeout(ctx, coreport.Duration(d.cfg.CallTimeout))
	defer cancel()

	systemPrompt := "You are a helpful assistant answering a consumer question. Answer naturally."
	return d.caller.CallModel(callCtx, ref.Provider, ref.Model, systemPrompt, query)
}

// applyMetrics scores a response when an evaluator is configured. Scoring
// errors are logged, never fatal.
func (d *Dispatcher) applyMetrics(ctx context.Context, result *entity.ScanResult, project *entity.Project) {
	if d.evaluator == nil {
		return
	}
	metrics, err := d.evaluator.Evaluate(ctx, result.ResponseText, project.BrandVariants, project.BrandDomain)
	if err != nil {
		d.logger.Warn("Evaluation failed", map[string]any{
			"scan_id": result.ScanID,
			"error":   err.Error(),
		})
		return
	}
	result.Mentioned = metrics.Mentioned
	result.MentionCount = metrics.MentionCount
	result.DomainCited = metrics.DomainCited
}

// scanStillRunning re-reads scan status between calls. Read errors count as
// still running; a transient store failure must not cancel a healthy scan.
func (d *Dispatcher) scanStillRunning(ctx context.Context, scanID string) bool {
	current, err := d.scans.GetByID(ctx, scanID)
	if err != nil {
		d.logger.Warn("Stop check failed, assuming scan still runs", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
		return true
	}
	return current.Status == entity.ScanRunning
}

// recordFailure stores a failed result row; the scan itself continues
func (d *Dispatcher) recordFailure(ctx context.Context, scanID, query string, ref entity.ModelRef, message string) {
	row := entity.NewFailedScanResult(scanID, query, ref.Provider, ref.Model, message, d.timeProvider)
	if err := d.results.Create(ctx, row); err != nil {
		d.logger.Error("Failed to persist failed result row", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
	}
}

// estimateCost sizes the reservation at worst case: every call maxing out
// the model's token bounds.
func (d *Dispatcher) estimateCost(project *entity.Project) (int64, error) {
	var total int64
	for _, ref := range project.Models {
		price, err := d.pricer.PriceFor(ref.Provider, ref.Model)
		if err != nil {
			return 0, fmt.Errorf("no pricing for %s/%s: %w", ref.Provider, ref.Model, err)
		}
		total += llm.EstimateCallCents(price) * int64(len(project.Queries))
	}
	return total, nil
}

// finishScan consumes the reservation at actual cost and closes scan and
// entry as completed. Losing the scan's running->completed transition means
// a stop or repair won concurrently; the worker then stands down without
// charging.
func (d *Dispatcher) finishScan(ctx context.Context, scan *entity.Scan, reservation *entity.Reservation, entry *entity.QueueEntry, outcome matrixOutcome) {
	if err := scan.Complete(outcome.successes, entity.AmountInCentsToString(outcome.actualCents), d.timeProvider); err != nil {
		d.failScanAndEntry(ctx, scan, reservation, entry, err.Error())
		return
	}

	won, err := d.scans.TransitionStatus(ctx, scan, entity.ScanRunning)
	if err != nil {
		d.logger.Error("Failed to complete scan", map[string]any{
			"scan_id": scan.ID,
			"error":   err.Error(),
		})
		d.closeEntryFailed(ctx, entry, "failed to persist scan completion")
		return
	}
	if !won {
		// Stop request or sweeper got there first; it owns the reservation.
		d.logger.Info("Scan completed but state changed concurrently, standing down", map[string]any{
			"scan_id": scan.ID,
		})
		d.closeEntryCompleted(ctx, entry, "scan stopped")
		return
	}

	if err := d.ledger.ConsumeReservation(ctx, reservation.ID, outcome.actualCents); err != nil {
		// The scan is completed; a consume race (released by a concurrent
		// stop) keeps funds with the user, which is the safe side.
		d.logger.Error("Failed to consume reservation for completed scan", map[string]any{
			"scan_id":        scan.ID,
			"reservation_id": reservation.ID,
			"error":          err.Error(),
		})
	}

	d.closeEntryCompleted(ctx, entry, fmt.Sprintf("completed with %d results", outcome.successes))
	d.metrics.ScanCompleted()
	d.logger.Info("Scan completed", map[string]any{
		"scan_id":      scan.ID,
		"results":      outcome.successes,
		"actual_cents": outcome.actualCents,
	})
}

// failScanAndEntry marks both scan and entry failed and releases any held
// reservation. Conditional transitions keep a concurrent stop/repair intact.
func (d *Dispatcher) failScanAndEntry(ctx context.Context, scan *entity.Scan, reservation *entity.Reservation, entry *entity.QueueEntry, message string) {
	if scan != nil {
		if err := scan.Fail(message, d.timeProvider); err == nil {
			if _, err := d.scans.TransitionStatus(ctx, scan, entity.ScanRunning); err != nil {
				d.logger.Error("Failed to persist scan failure", map[string]any{
					"scan_id": scan.ID,
					"error":   err.Error(),
				})
			}
		}
		if reservation != nil {
			if err := d.ledger.ReleaseReservation(ctx, reservation.ID, message); err != nil {
				d.logger.Error("Failed to release reservation", map[string]any{
					"reservation_id": reservation.ID,
					"error":          err.Error(),
				})
			}
		}
	}
	d.closeEntryFailed(ctx, entry, message)
	d.metrics.ScanFailed()
}

// failEntry fails an entry that never got as far as a scan row
func (d *Dispatcher) failEntry(ctx context.Context, entry *entity.QueueEntry, message string) {
	d.closeEntryFailed(ctx, entry, message)
	d.metrics.ScanFailed()
}

func (d *Dispatcher) closeEntryFailed(ctx context.Context, entry *entity.QueueEntry, message string) {
	if err := entry.Fail(message, d.timeProvider); err != nil {
		return
	}
	if _, err := d.queue.TransitionStatus(ctx, entry, entity.QueueRunning); err != nil {
		d.logger.Error("Failed to persist entry failure", map[string]any{
			"entry_id": entry.ID,
			"error":    err.Error(),
		})
	}
}

func (d *Dispatcher) closeEntryCompleted(ctx context.Context, entry *entity.QueueEntry, message string) {
	entry.ProgressMessage = message
	if err := entry.Complete(d.timeProvider); err != nil {
		return
	}
	if _, err := d.queue.TransitionStatus(ctx, entry, entity.QueueRunning); err != nil {
		d.logger.Error("Failed to persist entry completion", map[string]any{
			"entry_id": entry.ID,
			"error":    err.Error(),
		})
	}
}

// classifyProviderError maps raw call errors onto the provider taxonomy
func classifyProviderError(ref entity.ModelRef, err error) error {
	var provErr *errs.ProviderError
	if errors.As(err, &provErr) {
		return err
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	return errs.NewProviderError(ref.Provider, ref.Model, timeout, err)
}

// userFacingProviderMessage keeps funds-unrelated provider noise out of the
// stored error while giving timeouts their specific guidance.
func userFacingProviderMessage(err error) string {
	if errs.IsProviderTimeoutError(err) {
		return "model response timed out; consider a faster model for this query"
	}
	return err.Error()
}
