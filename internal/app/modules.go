package app

import (
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/specialistvlad/transformgrid/modules/bundle"
	"github.com/specialistvlad/transformgrid/modules/checksum"
	"github.com/specialistvlad/transformgrid/modules/env_vars"
	"github.com/specialistvlad/transformgrid/modules/gzip"
	"github.com/specialistvlad/transformgrid/modules/http_client"
	"github.com/specialistvlad/transformgrid/modules/print"
	"github.com/specialistvlad/transformgrid/modules/s3"
	"github.com/specialistvlad/transformgrid/modules/stamp"
)

// coreModules is the definitive list of all transform actions compiled into
// the transformgrid binary.
var coreModules = []registry.Module{
	&bundle.Module{},
	&checksum.Module{},
	&env_vars.Module{},
	&gzip.Module{},
	&http_client.Module{},
	&print.Module{},
	&s3.Module{},
	&stamp.Module{},
}
