package main

import (
	log "github.com/sirupsen/logrus"

	"nvoc/internal/nvoc"
	"nvoc/internal/util"
)

func main() {
	util.InitLogger(log.InfoLevel)
	nvoc.ParseCmdArgs()
}
