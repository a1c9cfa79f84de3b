package multipart

import (
	"strings"

	"github.com/HatemGhorbel/rapache/internal/attr"
	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
	"github.com/HatemGhorbel/rapache/internal/upload"
)

// classifyPart inspects the just-finished part headers. Content-
// Disposition's name attribute is mandatory; a filename attribute
// promotes the part to a file upload; a multipart/* Content-Type
// pushes a sub-parser instead.
func (p *Parser) classifyPart() status.ParseStatus {
	bag := p.hdrs.Bag

	cd := bag.Get("content-disposition")
	if cd == "" {
		return p.fail(status.NoHeader)
	}
	_, attrs, st := attr.Parse([]byte(cd))
	if st.Fatal() {
		return p.fail(status.BadHeader)
	}
	name, ok := attrs.Get("name")
	if !ok {
		return p.fail(status.BadHeader)
	}

	ct := bag.Get("content-type")
	if strings.HasPrefix(strings.ToLower(ct), "multipart/") {
		if p.depth+1 > p.cfg.MaxNesting {
			return p.fail(status.OverLimit)
		}
		_, ctAttrs, st := attr.Parse([]byte(ct))
		if st.Fatal() {
			return p.fail(status.BadHeader)
		}
		b, ok := ctAttrs.Get("boundary")
		if !ok {
			return p.fail(status.NoAttr)
		}
		if b.Value == "" || len(b.Value) > maxBoundaryLen {
			return p.fail(status.BadAttr)
		}
		p.sub = newParser([]byte(b.Value), p.cfg, p.depth+1)
		p.sub.hooks = p.hooks
		p.inPart = false
		p.state = stateNested
		return status.OK
	}

	p.partName = name.Value
	p.partInfo = bag
	p.valBuf = p.valBuf[:0]
	p.up = nil
	p.inPart = true

	if fn, hasFile := attrs.Get("filename"); hasFile {
		if p.cfg.DisableUploads {
			return p.fail(status.OverLimit)
		}
		p.up = &upload.Upload{
			Name:        name.Value,
			Filename:    fn.Value,
			ContentType: ct,
			Status:      status.Incomplete,
			Spool:       upload.NewSpool(p.cfg.MaxBrigadeBytes, p.cfg.TempDir),
		}
	}
	p.state = statePartBody
	return status.OK
}

// appendChunk commits body bytes to the current part. Upload chunks
// pass through the hook chain first, then land in the spool; field
// chunks accumulate in memory up to the brigade ceiling.
func (p *Parser) appendChunk(chunk []byte, out *table.Table) status.ParseStatus {
	if !p.inPart || len(chunk) == 0 {
		return status.OK
	}
	if p.up != nil {
		if st := parser.RunHooks(p.hooks, p.up, chunk); st != status.OK {
			p.abortPart(status.Interrupt, out)
			return p.fail(status.Interrupt)
		}
		if _, err := p.up.Spool.Write(chunk); err != nil {
			p.abortPart(status.Generic, out)
			return p.fail(status.Generic)
		}
		p.up.Size = p.up.Spool.Size()
		return status.OK
	}
	if uint64(len(p.valBuf)+len(chunk)) > p.cfg.MaxBrigadeBytes {
		p.abortPart(status.OverLimit, out)
		return p.fail(status.OverLimit)
	}
	p.valBuf = append(p.valBuf, chunk...)
	return status.OK
}

// finishPart inserts the completed part into the destination table.
// Upload params carry the filename as their value, the header bag as
// Info and the upload handle itself.
func (p *Parser) finishPart(out *table.Table) status.ParseStatus {
	if !p.inPart {
		p.resetPart()
		return status.OK
	}
	if p.pairs >= p.cfg.MaxParams {
		return p.fail(status.OverLimit)
	}
	p.pairs++

	var param *table.Param
	if p.up != nil {
		p.up.Status = status.OK
		param = table.NewParam(p.partName, p.up.Filename)
		param.Upload = p.up
	} else {
		param = table.NewParam(p.partName, string(p.valBuf))
	}
	param.Info = p.partInfo
	out.Insert(param)
	p.resetPart()
	return status.OK
}

// abortPart records a partially parsed part under its own status so
// callers can tell complete parts from truncated ones.
func (p *Parser) abortPart(st status.ParseStatus, out *table.Table) {
	if !p.inPart {
		return
	}
	var param *table.Param
	if p.up != nil {
		p.up.Status = st
		param = table.NewParam(p.partName, p.up.Filename)
		param.Upload = p.up
	} else {
		param = table.NewParam(p.partName, string(p.valBuf))
	}
	param.Info = p.partInfo
	param.Status = st
	out.Insert(param)
	p.resetPart()
}

func (p *Parser) resetPart() {
	p.inPart = false
	p.partName = ""
	p.partInfo = nil
	p.up = nil
	p.valBuf = p.valBuf[:0]
}
