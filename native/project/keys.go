package project

import "strconv"

const projectCounter = "project.id"

var (
	projectPrefix  = []byte("project/record/")
	approvalPrefix = []byte("project/approval/")
)

func projectKey(id uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), projectPrefix...), id, 10)
}

func approvalKey(id uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), approvalPrefix...), id, 10)
}
