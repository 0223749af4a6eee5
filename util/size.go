// util/size.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"reflect"
	"unsafe"
)

// SizeOf returns an estimate of the total number of bytes of memory used
// by obj, including everything it refers to. Memory that is referred to
// more than once is only counted once.
func SizeOf(obj any) int64 {
	if obj == nil {
		return 0
	}
	return sizeOfValue(reflect.ValueOf(obj), make(map[uintptr]bool))
}

// mapOverhead approximates the fixed cost of a map's header.
var mapOverhead = int64(unsafe.Sizeof(struct {
	count     int
	flags     uint8
	B         uint8
	noverflow uint16
	hash0     uint32
	buckets   unsafe.Pointer
	oldbucket unsafe.Pointer
	nevacuate uintptr
	extra     unsafe.Pointer
}{}))

func sizeOfValue(v reflect.Value, visited map[uintptr]bool) int64 {
	if !v.IsValid() {
		return 0
	}

	kind := v.Kind()
	if (kind == reflect.Pointer || kind == reflect.Map || kind == reflect.Slice) && !v.IsNil() {
		if visited[v.Pointer()] {
			return int64(v.Type().Size())
		}
		visited[v.Pointer()] = true
	}

	t := v.Type()
	size := int64(t.Size())

	// indirect returns the memory referred to by the value beyond its
	// own inline size.
	indirect := func(v reflect.Value) int64 {
		return sizeOfValue(v, visited) - int64(v.Type().Size())
	}

	switch kind {
	case reflect.Pointer:
		if !v.IsNil() {
			size += sizeOfValue(v.Elem(), visited)
		}

	case reflect.Struct:
		for i := range v.NumField() {
			size += indirect(v.Field(i))
		}

	case reflect.Array:
		for i := range v.Len() {
			size += indirect(v.Index(i))
		}

	case reflect.Slice:
		if !v.IsNil() {
			// Count the capacity, since that's what's allocated.
			size += int64(v.Cap()) * int64(t.Elem().Size())
			for i := range v.Len() {
				size += indirect(v.Index(i))
			}
		}

	case reflect.Map:
		if !v.IsNil() {
			size += mapOverhead
			iter := v.MapRange()
			for iter.Next() {
				size += sizeOfValue(iter.Key(), visited) + sizeOfValue(iter.Value(), visited)
			}
		}

	case reflect.String:
		size += int64(v.Len())

	case reflect.Interface:
		if !v.IsNil() {
			size += sizeOfValue(v.Elem(), visited)
		}
	}

	return size
}
