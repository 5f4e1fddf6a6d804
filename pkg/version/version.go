// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package version

import "github.com/Masterminds/semver"

// Version returns 'stackenv' version.
const Version = "v0.2"

// MinCurl is the oldest curl known to support every flag the pin command
// passes when shelling out instead of using the native HTTP client.
var MinCurl = semver.MustParse("7.20.0")
