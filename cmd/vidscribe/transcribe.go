package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/vidscribe/intake"
	"github.com/kbukum/vidscribe/pipeline"
)

// transcribeFiles runs each file through runner and writes the resulting
// jobs to out as indented JSON, one document per file. Failed files are
// reported but do not stop the others.
func transcribeFiles(ctx context.Context, runner intake.Submitter, files []string, name string, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	var errs []error
	for _, path := range files {
		jobName := name
		if jobName == "" {
			jobName = intake.NameFor(path)
		}
		job, err := transcribeFile(ctx, runner, path, jobName)
		if job != nil {
			if encErr := enc.Encode(job); encErr != nil {
				return encErr
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

func transcribeFile(ctx context.Context, runner intake.Submitter, path, name string) (*pipeline.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return runner.Run(ctx, pipeline.Request{Name: name, Video: f})
}
