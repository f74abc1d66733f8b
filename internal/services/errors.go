package services

import "errors"

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)
