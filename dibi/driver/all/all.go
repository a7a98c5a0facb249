// Package all registers every database backend.
package all

import (
	_ "github.com/orbnauticus/dibi-go/dibi/driver/mysql"    // backend registration
	_ "github.com/orbnauticus/dibi-go/dibi/driver/postgres" // backend registration
	_ "github.com/orbnauticus/dibi-go/dibi/driver/sqlite"   // backend registration
)
