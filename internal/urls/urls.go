package urls

// Project is the OpenDCT project page.
const Project = "https://github.com/enternoescape/opendct"

// Wiki is the OpenDCT wiki, covering installation and properties.
const Wiki = "https://github.com/enternoescape/opendct/wiki"

// WebInterface describes enabling the OpenDCT web interface and its REST API,
// which must be running for dctdash to show anything.
const WebInterface = "https://github.com/enternoescape/opendct/wiki/Web-Interface"

// Issues is where capture device problems are reported.
const Issues = "https://github.com/enternoescape/opendct/issues"
