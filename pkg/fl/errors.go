package fl

import "errors"

var (
	ErrNoResults     = errors.New("no results provided for aggregation")
	ErrShapeMismatch = errors.New("result parameter shapes do not match")
	ErrNoExamples    = errors.New("no examples reported across results")
)
