package strategy

import "time"

func (s *HybridReversionBreakout) SetTimeNow(fn func() time.Time) { s.timeNow = fn }

func (s *HybridReversionBreakout) Params() HybridReversionBreakoutParams { return s.params }
