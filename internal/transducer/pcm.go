package transducer

type pcmTransducer struct {
	opts Options
}

func newPCM(opts Options) (Transducer, error) {
	return &pcmTransducer{opts: opts}, nil
}

func (p *pcmTransducer) Name() string { return "pcm" }

func (p *pcmTransducer) Encode(samples []int16) ([]byte, error) {
	return seal(samplesToBytes(samples)), nil
}

func (p *pcmTransducer) Decode(payload []byte) ([]int16, error) {
	body, err := open(payload)
	if err != nil {
		return nil, err
	}
	samples, err := bytesToSamples(body)
	if err != nil {
		return nil, err
	}
	if err := checkSampleCount(p.opts, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (p *pcmTransducer) Close() error { return nil }
