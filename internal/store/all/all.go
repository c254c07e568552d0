// Package all wires every built-in storage backend into the store factory.
//
// This package exists purely for side effects: blank-importing it runs the
// init functions of each concrete backend, which register their factories
// with the store package. Commands import it once in their wiring layer and
// stay backend-agnostic everywhere else.
package all

import (
	_ "census/internal/store/mssql"
	_ "census/internal/store/mysql"
	_ "census/internal/store/postgres"
	_ "census/internal/store/sqlite"
)
