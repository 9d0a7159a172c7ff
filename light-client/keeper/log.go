package keeper

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "keeper")
