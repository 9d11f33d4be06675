package chord

import "errors"

// ErrMalformedOracleOutput is returned when the oracle yields a scale that
// cannot support triad and seventh construction. Table construction aborts;
// the graph is never built from a partial table.
var ErrMalformedOracleOutput = errors.New("malformed oracle output")
