//go:build !gocv

package detection

import "fmt"

func openGocvRunner(modelPath string) (Runner, error) {
	return nil, fmt.Errorf("%w: built without gocv support (rebuild with -tags gocv)", ErrModelUnavailable)
}
